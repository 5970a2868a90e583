package main

import (
	"fmt"

	"github.com/dantte-lp/dataexchange-broker/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
