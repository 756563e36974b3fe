package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stock statuses derived from totalStock and lowStockAlert
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// ProductVariation is a single color/size combination with its own
// stock and price.
type ProductVariation struct {
	Color  string   `bson:"color,omitempty" json:"color,omitempty"`
	Size   string   `bson:"size,omitempty" json:"size,omitempty"`
	Stock  int      `bson:"stock" json:"stock"`
	Price  float64  `bson:"price" json:"price"`
	Images []string `bson:"images" json:"images"`
	SKU    string   `bson:"sku,omitempty" json:"sku,omitempty"`
}

// Product represents a catalog product
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Category      string             `bson:"category" json:"category"`
	Subcategory   string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Description   string             `bson:"description" json:"description"`
	HasVariations bool               `bson:"has_variations" json:"hasVariations"`
	Variations    []ProductVariation `bson:"variations" json:"variations"`
	Images        []string           `bson:"images" json:"images"`

	SKU          string  `bson:"sku" json:"sku"`
	Barcode      string  `bson:"barcode,omitempty" json:"barcode,omitempty"`
	BasePrice    float64 `bson:"base_price" json:"basePrice"`
	ComparePrice float64 `bson:"compare_price,omitempty" json:"comparePrice,omitempty"`
	CostPrice    float64 `bson:"cost_price" json:"costPrice"`
	ProfitMargin float64 `bson:"profit_margin" json:"profitMargin"`

	Tags []string `bson:"tags" json:"tags"`

	Weight         float64 `bson:"weight" json:"weight"`
	Length         float64 `bson:"length" json:"length"`
	Width          float64 `bson:"width" json:"width"`
	Height         float64 `bson:"height" json:"height"`
	ShippingMethod string  `bson:"shipping_method" json:"shippingMethod"`
	FreeShipping   bool    `bson:"free_shipping" json:"freeShipping"`

	TaxRate        float64  `bson:"tax_rate" json:"taxRate"`
	SEOTitle       string   `bson:"seo_title,omitempty" json:"seoTitle,omitempty"`
	SEODescription string   `bson:"seo_description,omitempty" json:"seoDescription,omitempty"`
	SEOKeywords    []string `bson:"seo_keywords" json:"seoKeywords"`

	LowStockAlert int `bson:"low_stock_alert" json:"lowStockAlert"`
	TotalStock    int `bson:"total_stock" json:"totalStock"`

	IsPublished   bool       `bson:"is_published" json:"isPublished"`
	PublishDate   *time.Time `bson:"publish_date,omitempty" json:"publishDate,omitempty"`
	IsFeatured    bool       `bson:"is_featured" json:"isFeatured"`
	IsOnSale      bool       `bson:"is_on_sale" json:"isOnSale"`
	SaleStartDate *time.Time `bson:"sale_start_date,omitempty" json:"saleStartDate,omitempty"`
	SaleEndDate   *time.Time `bson:"sale_end_date,omitempty" json:"saleEndDate,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Normalize recomputes the derived fields before persistence.
// When the product has variations, total stock is the sum of variation
// stock and the direct field is not authoritative.
func (p *Product) Normalize() {
	if p.BasePrice > 0 {
		p.ProfitMargin = (p.BasePrice - p.CostPrice) / p.BasePrice * 100
	}
	if p.HasVariations {
		total := 0
		for _, v := range p.Variations {
			total += v.Stock
		}
		p.TotalStock = total
	}
}

// StockStatus classifies aggregate stock against the low-stock
// threshold. Zero stock wins over the threshold check.
func StockStatus(totalStock, lowStockAlert int) string {
	if totalStock == 0 {
		return StockStatusOutOfStock
	}
	if totalStock <= lowStockAlert {
		return StockStatusLowStock
	}
	return StockStatusInStock
}
