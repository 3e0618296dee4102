// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/SecKatie/lola/cmd/lola"

func main() {
	cmd.Execute()
}
