// Command nsadmin is the terminal client for the Nullscape admin backend.
package main

import "github.com/and161185/nullscape-admin/cmd/nsadmin/cmd"

func main() {
	cmd.Execute()
}
