package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) seed() error {
	n, err := cli.navSvc.Seed(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%d navigation settings created\n", n)
	return nil
}
