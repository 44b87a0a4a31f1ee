package main

import "github.com/oshokin/mashup-tool/cmd/mashup-run/cmd"

func main() {
	cmd.Execute()
}
