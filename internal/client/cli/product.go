package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/iudanet/posync/internal/client/data"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

const productUsage = "product create|show|list|update|price|deactivate|stock"

func (c *Cli) runProduct(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s", ErrUsage, productUsage)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "create":
		return c.productCreate(ctx, rest)
	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("%w: product show <id>", ErrUsage)
		}
		return c.productShow(ctx, rest[0])
	case "list":
		return c.productList(ctx)
	case "update":
		if len(rest) != 2 {
			return fmt.Errorf("%w: product update <id> <patch-json>", ErrUsage)
		}
		patch, err := parsePatch(rest[1])
		if err != nil {
			return err
		}
		return c.recorded(c.dataService.UpdateProduct(ctx, rest[0], patch))
	case "price":
		return c.productPrice(ctx, rest)
	case "deactivate":
		if len(rest) != 1 {
			return fmt.Errorf("%w: product deactivate <id>", ErrUsage)
		}
		return c.recorded(c.dataService.DeactivateProduct(ctx, rest[0]))
	case "stock":
		return c.productStock(ctx, rest)
	default:
		return fmt.Errorf("%w: %s", ErrUsage, productUsage)
	}
}

func (c *Cli) recorded(event *models.LocalEvent, err error) error {
	if err != nil {
		return err
	}
	return c.printEvent(event)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (c *Cli) productCreate(ctx context.Context, args []string) error {
	var in data.ProductInput

	fs := newFlagSet("product create")
	fs.StringVar(&in.ID, "id", "", "product id (generated when empty)")
	fs.StringVar(&in.Name, "name", "", "product name")
	fs.StringVar(&in.Category, "category", "", "category")
	fs.StringVar(&in.SKU, "sku", "", "SKU")
	fs.StringVar(&in.Barcode, "barcode", "", "barcode")
	fs.Float64Var(&in.PriceUSD, "price-usd", 0, "price in USD")
	fs.Float64Var(&in.PriceBs, "price-bs", 0, "price in Bs")
	fs.Float64Var(&in.CostUSD, "cost-usd", 0, "cost in USD")
	fs.Float64Var(&in.CostBs, "cost-bs", 0, "cost in Bs")
	fs.IntVar(&in.LowStockThreshold, "low-stock", 0, "low stock threshold")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	return c.recorded(c.dataService.CreateProduct(ctx, in))
}

func (c *Cli) productShow(ctx context.Context, id string) error {
	product, err := c.dataService.GetProduct(ctx, id)
	if errors.Is(err, storage.ErrEntityNotFound) {
		return fmt.Errorf("product not found with ID: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}

	view := struct {
		Product *models.Product    `json:"product"`
		Stock   *models.StockLevel `json:"stock,omitempty"`
	}{Product: product}

	stock, err := c.dataService.GetStock(ctx, id)
	switch {
	case err == nil:
		view.Stock = stock
	case !errors.Is(err, storage.ErrEntityNotFound):
		return fmt.Errorf("failed to get stock: %w", err)
	}

	if ok, err := c.printJSON(view); ok {
		return err
	}
	return render(c.io, productTemplate, view)
}

func (c *Cli) productList(ctx context.Context) error {
	products, err := c.dataService.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if ok, err := c.printJSON(products); ok {
		return err
	}
	return render(c.io, productListTemplate, products)
}

func (c *Cli) productPrice(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: product price <id> [--usd N] [--bs N]", ErrUsage)
	}
	id := args[0]

	var in data.PriceInput
	fs := newFlagSet("product price")
	fs.Func("usd", "price in USD", floatPtr(&in.PriceUSD))
	fs.Func("bs", "price in Bs", floatPtr(&in.PriceBs))
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	return c.recorded(c.dataService.ChangePrice(ctx, id, in))
}

func (c *Cli) productStock(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: product stock <id> <delta> [reason]", ErrUsage)
	}

	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: invalid delta %q", ErrUsage, args[1])
	}
	in := data.StockInput{QtyDelta: delta}
	if len(args) == 3 {
		in.Reason = args[2]
	}

	return c.recorded(c.dataService.AdjustStock(ctx, args[0], in))
}

func floatPtr(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}
