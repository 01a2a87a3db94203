// Package keychain resolves the inference API token. The environment
// (including a .env file loaded by the CLI) is consulted first so the tool
// works on any platform; on macOS the system keychain is the fallback, read
// with the security command line tool. Token values are never logged.
package keychain
