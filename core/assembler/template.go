package assembler

import (
	_ "embed"

	"billing-fixtures/core/collection"
)

//go:embed baseline.json
var baselineJSON []byte

// DefaultCollection returns a fresh copy of the stock collection, holding
// only the baseline folder
func DefaultCollection() (*collection.Collection, error) {
	return collection.Parse(baselineJSON)
}

// Template returns the baseline folder of a collection at index and checks
// that it has every configured step
func (a *Assembler) Template(c *collection.Collection, index int) (*collection.Item, error) {
	folder, err := c.Folder(index)
	if err != nil {
		return nil, err
	}
	if err := a.steps.Validate(folder); err != nil {
		return nil, err
	}
	return folder, nil
}
