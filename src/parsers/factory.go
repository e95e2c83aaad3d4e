// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/wealthfolio/backend/src/parsers/wealthsimple"
)

func GetParser(source string) (EmailParser, error) {
	switch source {
	case "wealthsimple":
		return wealthsimple.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
