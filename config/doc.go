// Package config provides configuration loading and validation for mediagate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (MEDIAGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with MEDIAGATE_ prefix:
//   - server.port → MEDIAGATE_SERVER_PORT
//   - auth.secret → MEDIAGATE_AUTH_SECRET
//   - storage.s3.bucket → MEDIAGATE_STORAGE_S3_BUCKET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (colored logs) or prod (JSON logs)
//   - Server: port, timeouts, and the Cache-Control value of media responses
//   - Auth: the shared token signing secret
//   - Storage: filesystem root or S3 bucket settings
//   - Database: metadata sidecar for the filesystem store
//   - CORS: allowed origin and preflight max age
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags and struct level rules:
//   - Port must be 1-65535
//   - Storage type must be filesystem or s3; s3 requires a bucket
//   - An enabled database must be sqlite or postgres with valid table names
//   - Log level must be debug, info, warn, or error
package config
