package main

import "github.com/frahmantamala/dialer-dashboard/cmd"

func main() {
	cmd.Execute()
}
