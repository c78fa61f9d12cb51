// Command hfind looks up hash values in forensic hash databases.
package main

import "github.com/mesh-intelligence/hashdb/internal/cli"

func main() {
	cli.Execute()
}
