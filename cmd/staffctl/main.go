// Command staffctl is the staff administration dashboard for the terminal.
package main

func main() {
	Execute()
}
