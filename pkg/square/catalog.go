package square

import (
	"context"

	sq "github.com/square/square-go-sdk"
)

// CatalogItemSummary is the normalized slice of a remote catalog object that
// the storefront mirror stores. Price comes from the first variation; items
// without a priced variation report AmountCents 0 and no variant id.
type CatalogItemSummary struct {
	RemoteID    string
	VariantID   string
	Name        string
	URL         string
	AmountCents int64
	Currency    string
}

// ListCatalogItems fetches one page of sellable items in normalized form.
// The returned cursor is "" once the catalog is exhausted.
func (c *Client) ListCatalogItems(ctx context.Context, cursor string) ([]CatalogItemSummary, string, error) {
	objects, next, err := c.SearchCatalogItems(ctx, cursor)
	if err != nil {
		return nil, "", err
	}

	summaries := make([]CatalogItemSummary, 0, len(objects))
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		item := obj.GetItem()
		if item == nil {
			continue
		}
		data := item.GetItemData()
		if data == nil {
			continue
		}

		summary := CatalogItemSummary{
			RemoteID: item.GetID(),
			Name:     stringValue(data.GetName()),
			URL:      stringValue(data.GetEcomURI()),
		}
		if variantID, money := firstPricedVariation(data.GetVariations()); money != nil {
			summary.VariantID = variantID
			if amount := money.GetAmount(); amount != nil {
				summary.AmountCents = *amount
			}
			if currency := money.GetCurrency(); currency != nil {
				summary.Currency = string(*currency)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, next, nil
}

func firstPricedVariation(variations []*sq.CatalogObject) (string, *sq.Money) {
	for _, v := range variations {
		if v == nil {
			continue
		}
		variation := v.GetItemVariation()
		if variation == nil {
			continue
		}
		data := variation.GetItemVariationData()
		if data == nil {
			continue
		}
		if money := data.GetPriceMoney(); money != nil {
			return variation.GetID(), money
		}
	}
	return "", nil
}
