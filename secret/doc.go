// Package secret resolves credential values that should not live in plain
// environment variables.
//
// It supports:
//   - Environment expansion for configuration files (see ExpandEnv)
//   - Pluggable secret providers (see Provider + Registry)
//   - Resolving secret references in credential values (see Resolver)
//
// References use the prefix "secretref:":
//   - From a file:          secretref:file:/run/secrets/portfolio_password
//   - From another env var: secretref:env:PORTFOLIO_PASSWORD
//
// Values without the prefix are returned untouched, so passwords containing
// '$' survive resolution.
package secret
