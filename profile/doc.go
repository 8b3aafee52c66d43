// Package profile defines the six resource operations exposed as tools:
// five private reads of the account's portfolio data and one message send.
//
// Each operation is a fixed path relative to the API base URL. Service
// runs them through an upstream.Fetcher, so every call authenticates
// afresh unless a caching token provider has been configured.
package profile
