// Package main is the entry point for the WordCoach billing service.
package main

func main() {
	Execute()
}
