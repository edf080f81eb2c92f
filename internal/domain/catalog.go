package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Category string

const (
	CategoryUpper Category = "upper"
	CategoryOuter Category = "outer"
	CategoryLower Category = "lower"
	CategoryFull  Category = "full"
	CategoryShoes Category = "shoes"
)

// Categories in the order the selector presents them.
var Categories = []Category{CategoryUpper, CategoryOuter, CategoryLower, CategoryFull, CategoryShoes}

var categoryAliases = map[string]Category{
	"upper":     CategoryUpper,
	"tops":      CategoryUpper,
	"top":       CategoryUpper,
	"outer":     CategoryOuter,
	"outerwear": CategoryOuter,
	"lower":     CategoryLower,
	"bottoms":   CategoryLower,
	"bottom":    CategoryLower,
	"full":      CategoryFull,
	"dresses":   CategoryFull,
	"dress":     CategoryFull,
	"shoes":     CategoryShoes,
	"footwear":  CategoryShoes,
}

// ParseCategory accepts both the canonical names and the catalog aliases
// (tops, outerwear, bottoms, dresses, footwear). Unknown names are kept
// verbatim so that placement can fall back to its default rule.
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Category(strings.ToLower(strings.TrimSpace(s))), false
	}
	return c, true
}

func (c Category) Known() bool {
	_, ok := categoryAliases[string(c)]
	return ok
}

func (c *Category) UnmarshalText(b []byte) error {
	*c, _ = ParseCategory(string(b))
	return nil
}

// ItemID accepts numeric and string identifiers on the wire; the 2D catalog
// historically used numbers and the 3D one strings.
type ItemID string

func (id *ItemID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		v, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("item id: %w", err)
		}
		*id = ItemID(v)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("item id: %q is neither string nor number", s)
	}
	*id = ItemID(s)
	return nil
}

type TextureMaps struct {
	Normal    string `json:"normal,omitempty" yaml:"normal"`
	Roughness string `json:"roughness,omitempty" yaml:"roughness"`
	Diffuse   string `json:"diffuse,omitempty" yaml:"diffuse"`
	Metalness string `json:"metalness,omitempty" yaml:"metalness"`
}

type ClothingItem struct {
	ID          ItemID       `json:"id" yaml:"id" gorm:"type:varchar(64);primaryKey"`
	Name        string       `json:"name" yaml:"name" gorm:"size:200"`
	Category    Category     `json:"category" yaml:"category" gorm:"type:varchar(20);index"`
	ImageURL    string       `json:"image,omitempty" yaml:"image" gorm:"size:512"`
	OverlayURL  string       `json:"overlay,omitempty" yaml:"overlay" gorm:"size:512"`
	ModelURL    string       `json:"modelUrl,omitempty" yaml:"model" gorm:"size:512"`
	Brand       string       `json:"brand,omitempty" yaml:"brand" gorm:"size:120"`
	Price       string       `json:"price,omitempty" yaml:"price" gorm:"size:40"`
	Description string       `json:"description,omitempty" yaml:"description" gorm:"type:text"`
	Sizes       []string     `json:"sizes,omitempty" yaml:"sizes" gorm:"type:text;serializer:json"`
	Colors      []string     `json:"colors,omitempty" yaml:"colors" gorm:"type:text;serializer:json"`
	TextureMaps *TextureMaps `json:"textureMaps,omitempty" yaml:"textureMaps" gorm:"type:text;serializer:json"`
	Position    int          `json:"-" yaml:"-" gorm:"index"`
}

func (ClothingItem) TableName() string { return "clothing_items" }

// UnmarshalJSON also understands the "imageUrl" key used by the integration API.
func (it *ClothingItem) UnmarshalJSON(b []byte) error {
	type plain ClothingItem
	var aux struct {
		plain
		ImageURLAlt string `json:"imageUrl"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*it = ClothingItem(aux.plain)
	if it.ImageURL == "" {
		it.ImageURL = aux.ImageURLAlt
	}
	return nil
}

type CatalogFilter struct {
	Category Category
}
