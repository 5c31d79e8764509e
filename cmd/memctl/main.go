// Command memctl drives the contiguous memory allocation simulator from the
// command line: as an HTTP service, an interactive shell, or a script runner.
package main

func main() {
	execute()
}
