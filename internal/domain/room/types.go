package room

type Category string

const (
	CategoryStandard Category = "standard"
	CategoryDeluxe   Category = "deluxe"
	CategorySuite    Category = "suite"
	CategoryFamily   Category = "family"
)

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryStandard, CategoryDeluxe, CategorySuite, CategoryFamily:
		return true
	default:
		return false
	}
}
