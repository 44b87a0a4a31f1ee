package main

import "github.com/oshokin/mashup-tool/cmd/mashup-provision/cmd"

func main() {
	cmd.Execute()
}
