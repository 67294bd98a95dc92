package workload

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/parquet-go/parquet-go"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	OrderCount = 1000

	dateLayout = "2006-01-02"
)

var (
	categories = []string{"Electronics", "Clothing", "Home & Kitchen", "Sports", "Toys"}
)

type (
	Order struct {
		OrderID      int     `parquet:"order_id" dataframe:"Order ID"`
		Category     string  `parquet:"product_category" dataframe:"Product Category"`
		Quantity     int     `parquet:"quantity_sold" dataframe:"Quantity Sold"`
		UnitPrice    float64 `parquet:"unit_price" dataframe:"Unit Price"`
		PurchaseDate string  `parquet:"purchase_date" dataframe:"Purchase Date"`
	}

	summary struct {
		Rows        int
		Revenue     float64
		AvgQuantity float64
		Head        string
	}
)

// generateOrders fills n orders with random categories, quantities in 1..10,
// unit prices in [10, 1000) rounded to cents and purchase dates within the
// year before base.
func generateOrders(rnd *rand.Rand, n int, base time.Time) []Order {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = scalar.Round(10+rnd.Float64()*990, 2)
	}

	orders := make([]Order, n)
	for i := range orders {
		orders[i] = Order{
			OrderID:      i + 1,
			Category:     categories[rnd.Intn(len(categories))],
			Quantity:     1 + rnd.Intn(10),
			UnitPrice:    prices[i],
			PurchaseDate: base.AddDate(0, 0, -rnd.Intn(365)).Format(time.RFC3339),
		}
	}
	return orders
}

// tabulate loads orders into a frame, normalizes the purchase date column to
// YYYY-MM-DD and writes the normalized dates back into orders.
func tabulate(orders []Order, loc *time.Location) (*summary, error) {
	df := dataframe.LoadStructs(orders)
	if df.Err != nil {
		return nil, fmt.Errorf("dataframe.LoadStructs failed: %w", df.Err)
	}

	raw := df.Col("Purchase Date").Records()
	dates := make([]string, len(raw))
	for i, r := range raw {
		t, err := time.ParseInLocation(time.RFC3339, r, loc)
		if err != nil {
			return nil, fmt.Errorf("time.Parse failed: %w", err)
		}
		dates[i] = t.Format(dateLayout)
	}

	df = df.Mutate(series.New(dates, series.String, "Purchase Date"))
	if df.Err != nil {
		return nil, fmt.Errorf("DataFrame.Mutate failed: %w", df.Err)
	}

	for i, d := range df.Col("Purchase Date").Records() {
		orders[i].PurchaseDate = d
	}

	revenue := make([]float64, len(orders))
	for i, o := range orders {
		revenue[i] = float64(o.Quantity) * o.UnitPrice
	}

	head := []int{}
	for i := 0; i < df.Nrow() && i < 5; i++ {
		head = append(head, i)
	}

	return &summary{
		Rows:        df.Nrow(),
		Revenue:     scalar.Round(floats.Sum(revenue), 2),
		AvgQuantity: df.Col("Quantity Sold").Mean(),
		Head:        df.Subset(head).String(),
	}, nil
}

func encodeParquet(orders []Order, schema *parquet.Schema) ([]byte, error) {
	buf := &bytes.Buffer{}

	w := parquet.NewGenericWriter[Order](buf, schema)
	if _, err := w.Write(orders); err != nil {
		return nil, fmt.Errorf("GenericWriter.Write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("GenericWriter.Close failed: %w", err)
	}

	return buf.Bytes(), nil
}
