// Package products holds the static product, product type and asset tables the
// quote flow resolves against. Tables are loaded once into an immutable
// Catalog and injected where needed; nothing here is mutable package state.
package products

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"coversdk/core/address"
	"coversdk/core/content"
	"coversdk/core/premium"
)

var (
	//go:embed catalog.yaml
	catalogFS embed.FS

	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

var (
	// ErrProductNotFound indicates the product identifier is not in the catalog.
	ErrProductNotFound = errors.New("products: product not found")
	// ErrProductTypeNotFound indicates a product references an unknown product type.
	ErrProductTypeNotFound = errors.New("products: product type not found")
)

// Asset is a cover asset accepted by the protocol.
type Asset struct {
	ID       uint32 `yaml:"id" json:"id"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Decimals int    `yaml:"decimals" json:"decimals"`
}

// ProductType groups products sharing cover wording and metadata requirements.
type ProductType struct {
	ID          uint32       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	ContentType content.Type `yaml:"contentType,omitempty" json:"contentType,omitempty"`
	// Commission overrides the catalog default when set.
	Commission *Commission `yaml:"commission,omitempty" json:"commission,omitempty"`
}

// Product is a purchasable cover product.
type Product struct {
	ID          uint32 `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	ProductType uint32 `yaml:"productType" json:"productType"`
	Category    string `yaml:"category" json:"category"`
	Private     bool   `yaml:"private,omitempty" json:"private,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
}

// Commission is the distributor commission charged on top of the premium.
type Commission struct {
	Ratio       int64  `yaml:"ratio" json:"ratio"`
	Destination string `yaml:"destination" json:"destination"`
}

type catalogFile struct {
	Commission   Commission    `yaml:"commission"`
	Assets       []Asset       `yaml:"assets"`
	ProductTypes []ProductType `yaml:"productTypes"`
	Products     []Product     `yaml:"products"`
}

// Catalog is an immutable, validated view over the product tables.
type Catalog struct {
	commission   Commission
	assets       map[uint32]Asset
	productTypes map[uint32]ProductType
	products     map[uint32]Product
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		data, err := catalogFS.ReadFile("catalog.yaml")
		if err != nil {
			defaultErr = fmt.Errorf("read embedded catalog: %w", err)
			return
		}
		defaultCatalog, defaultErr = Parse(data)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is like Default but panics if the embedded catalog is invalid.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return build(file)
}

func build(file catalogFile) (*Catalog, error) {
	if err := validateCommission("default", file.Commission); err != nil {
		return nil, err
	}
	c := &Catalog{
		commission:   file.Commission,
		assets:       make(map[uint32]Asset, len(file.Assets)),
		productTypes: make(map[uint32]ProductType, len(file.ProductTypes)),
		products:     make(map[uint32]Product, len(file.Products)),
	}
	if len(file.Assets) == 0 {
		return nil, fmt.Errorf("catalog: at least one asset must be configured")
	}
	for _, asset := range file.Assets {
		if _, dup := c.assets[asset.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate asset id %d", asset.ID)
		}
		if strings.TrimSpace(asset.Symbol) == "" {
			return nil, fmt.Errorf("catalog: asset %d missing symbol", asset.ID)
		}
		c.assets[asset.ID] = asset
	}
	for _, pt := range file.ProductTypes {
		if _, dup := c.productTypes[pt.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product type id %d", pt.ID)
		}
		if pt.ContentType != "" && !pt.ContentType.Valid() {
			return nil, fmt.Errorf("catalog: product type %d: %w: %q", pt.ID, content.ErrUnknownType, pt.ContentType)
		}
		if pt.Commission != nil {
			if err := validateCommission(pt.Name, *pt.Commission); err != nil {
				return nil, err
			}
		}
		c.productTypes[pt.ID] = pt
	}
	for _, p := range file.Products {
		if p.ID == 0 {
			return nil, fmt.Errorf("catalog: product %q must have a positive id", p.Name)
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %d", p.ID)
		}
		if _, ok := c.productTypes[p.ProductType]; !ok {
			return nil, fmt.Errorf("catalog: product %d: %w: %d", p.ID, ErrProductTypeNotFound, p.ProductType)
		}
		c.products[p.ID] = p
	}
	return c, nil
}

func validateCommission(scope string, cm Commission) error {
	if cm.Ratio < 0 || cm.Ratio >= premium.Denominator {
		return fmt.Errorf("catalog: %s commission ratio %d outside [0, %d)", scope, cm.Ratio, premium.Denominator)
	}
	if !address.Valid(cm.Destination) {
		return fmt.Errorf("catalog: %s commission destination %q is not a valid address", scope, cm.Destination)
	}
	return nil
}

// WithCommission returns a copy of the catalog whose default commission is
// replaced. Product type overrides are preserved.
func (c *Catalog) WithCommission(cm Commission) (*Catalog, error) {
	if err := validateCommission("default", cm); err != nil {
		return nil, err
	}
	clone := c.clone()
	clone.commission = cm
	return clone, nil
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		commission:   c.commission,
		assets:       make(map[uint32]Asset, len(c.assets)),
		productTypes: make(map[uint32]ProductType, len(c.productTypes)),
		products:     make(map[uint32]Product, len(c.products)),
	}
	for id, a := range c.assets {
		out.assets[id] = a
	}
	for id, pt := range c.productTypes {
		out.productTypes[id] = pt
	}
	for id, p := range c.products {
		out.products[id] = p
	}
	return out
}

// Product resolves a product by identifier.
func (c *Catalog) Product(id uint32) (Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// ProductType resolves a product type by identifier.
func (c *Catalog) ProductType(id uint32) (ProductType, bool) {
	pt, ok := c.productTypes[id]
	return pt, ok
}

// ProductTypeOf resolves the product type of a product.
func (c *Catalog) ProductTypeOf(productID uint32) (ProductType, error) {
	p, ok := c.products[productID]
	if !ok {
		return ProductType{}, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	pt, ok := c.productTypes[p.ProductType]
	if !ok {
		return ProductType{}, fmt.Errorf("%w: %d", ErrProductTypeNotFound, p.ProductType)
	}
	return pt, nil
}

// Asset resolves a cover asset by identifier.
func (c *Catalog) Asset(id uint32) (Asset, bool) {
	a, ok := c.assets[id]
	return a, ok
}

// Assets returns the supported cover assets ordered by identifier.
func (c *Catalog) Assets() []Asset {
	out := make([]Asset, 0, len(c.assets))
	for _, a := range c.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Commission returns the commission applied to products of the given type.
func (c *Catalog) Commission(productTypeID uint32) Commission {
	if pt, ok := c.productTypes[productTypeID]; ok && pt.Commission != nil {
		return *pt.Commission
	}
	return c.commission
}

// DefaultCommission returns the commission used by product types without an override.
func (c *Catalog) DefaultCommission() Commission {
	return c.commission
}

// RequiredContent reports the content type a product's buyers must attach.
func (c *Catalog) RequiredContent(productID uint32) (content.Type, bool) {
	pt, err := c.ProductTypeOf(productID)
	if err != nil || pt.ContentType == "" {
		return "", false
	}
	return pt.ContentType, true
}

// ProductsByType lists the public products of a product type ordered by identifier.
func (c *Catalog) ProductsByType(productTypeID uint32) []Product {
	out := make([]Product, 0)
	for _, p := range c.products {
		if p.ProductType == productTypeID && !p.Private {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PrivateProducts returns the identifiers of products hidden from public listings.
func (c *Catalog) PrivateProducts() []uint32 {
	out := make([]uint32, 0)
	for id, p := range c.products {
		if p.Private {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
