package main

import "github.com/oshokin/mashup-tool/cmd/mashup-packager/cmd"

func main() {
	cmd.Execute()
}
