package common

import "fmt"

var (
	ErrNoProductCode = fmt.Errorf("server entry has no productcode")
	ErrNoServers     = fmt.Errorf("no servers configured")
)
