package main

import "github.com/oshokin/mashup-tool/cmd/mashup-checker/cmd"

func main() {
	cmd.Execute()
}
