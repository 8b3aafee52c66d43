// Package config loads the server configuration and the upstream credentials.
//
// Credentials come from four environment variables, read once at startup:
//
//	USERNAME   account used to authenticate against the upstream API
//	PASSWORD   its password (may be a secretref, see package secret)
//	EMAIL      contact address that receives send_message notifications
//	BASE_URL   upstream API prefix, normally ending in "/"
//
// Absent variables read as empty strings. They are not validated here: a
// wrong or missing credential shows up as an authentication failure on the
// first tool call.
//
// Ambient settings use the PROFILE_MCP_ prefix and may be overridden by a
// YAML file passed to Load. ${VAR} references inside the file are expanded
// from the environment, with missing variables expanding to "":
//
//	upstream:
//	  base_url: https://api.example.com/api/
//	  username: ${USERNAME}
//	  password: secretref:file:/run/secrets/portfolio_password
//	  timeout: 10s
//	server:
//	  transport: http
//	  http_addr: ":8080"
//	cache:
//	  token_ttl: 5m
//	telemetry:
//	  log_level: debug
//	  metrics_exporter: prometheus
package config
