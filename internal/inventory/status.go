package inventory

type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	LowStock   StockStatus = "low_stock"
	OutOfStock StockStatus = "out_of_stock"
)

func (s StockStatus) Valid() bool {
	return s == InStock || s == LowStock || s == OutOfStock
}

// ClassifyStock mirrors the server's status rule for filtering and badges.
// The server's own status wins whenever it sends one.
func ClassifyStock(qty, threshold int) StockStatus {
	switch {
	case qty <= 0:
		return OutOfStock
	case qty <= threshold:
		return LowStock
	default:
		return InStock
	}
}
