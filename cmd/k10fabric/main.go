// Command k10fabric runs the K10 interconnect fabric model.
package main

func main() {
	Execute()
}
