// Package upstream performs authenticated calls against the profile API and
// normalizes every outcome into a Result.
//
// A call is: obtain a token, attach it as "Authorization: Token <t>", send
// the request, classify the reply. Only a token failure escapes as a Go
// error; every failure after the token is in hand is returned as a value:
//
//   - 200 with a JSON body        → Success
//   - any other status            → UpstreamError (status, body, token)
//   - transport, read or decode   → TransportError
package upstream
