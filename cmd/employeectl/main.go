package main

import "github.com/corpdesk/employee-portal/cmd/employeectl/cmd"

func main() {
	cmd.Execute()
}
