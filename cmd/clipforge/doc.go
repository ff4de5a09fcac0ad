// Command clipforge is the CLI frontend for the clipforge daemon. Most
// commands talk to the daemon's local HTTP API; configuration and dependency
// checks run locally.
package main
