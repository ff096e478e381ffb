package publications

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/validation"
	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
)

// Mode selects the submit rules: create requires at least one image.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

const defaultStock = 1

// Limits bounds the images a draft may carry.
type Limits struct {
	MaxImages     int
	MaxImageBytes int64
}

func DefaultLimits() Limits {
	return Limits{MaxImages: 5, MaxImageBytes: 5 << 20}
}

func (l Limits) normalized() Limits {
	def := DefaultLimits()
	if l.MaxImages <= 0 {
		l.MaxImages = def.MaxImages
	}
	if l.MaxImageBytes <= 0 {
		l.MaxImageBytes = def.MaxImageBytes
	}
	return l
}

// Image is a file picked by the user. Data travels as base64 in JSON.
type Image struct {
	Name string `json:"name,omitempty"`
	Data []byte `json:"data"`
}

// Draft is the form state of a create or edit session. Numeric fields hold
// the raw text the user typed.
type Draft struct {
	Title       string   `json:"title" validate:"required"`
	Price       string   `json:"price" validate:"required"`
	Stock       string   `json:"stock,omitempty"`
	Category    string   `json:"category" validate:"required"`
	Campus      string   `json:"campus,omitempty"`
	Description string   `json:"description,omitempty"`
	Images      []Image  `json:"images,omitempty"`
	Existing    []string `json:"existingImages,omitempty"`
}

var fieldLabels = map[string]string{
	"title":    "Title is required",
	"price":    "Price is required",
	"category": "Category is required",
}

// ImageCount counts new and already uploaded images.
func (d *Draft) ImageCount() int {
	return len(d.Images) + len(d.Existing)
}

// AddImage attaches img. Beyond the cap, oversized files and non-images are
// rejected with a validation error and the list is left unchanged.
func (d *Draft) AddImage(img Image, limits Limits) error {
	limits = limits.normalized()
	if d.ImageCount() >= limits.MaxImages {
		return imageError(fmt.Sprintf("You can upload up to %d images", limits.MaxImages))
	}
	if len(img.Data) == 0 {
		return imageError("The selected file is empty")
	}
	if int64(len(img.Data)) > limits.MaxImageBytes {
		return imageError(fmt.Sprintf("Images must be %dMB or smaller", limits.MaxImageBytes>>20))
	}
	if !isImage(img.Data) {
		return imageError("Only image files can be attached")
	}
	d.Images = append(d.Images, img)
	return nil
}

// Validate checks the draft before any network call.
func (d Draft) Validate(mode Mode, limits Limits) error {
	limits = limits.normalized()
	trimmed := d.trimmed()

	var fields []pkgerrors.FieldError
	for _, fe := range validation.Struct(trimmed) {
		if label, ok := fieldLabels[fe.Field]; ok {
			fe.Message = label
		}
		fields = append(fields, fe)
	}
	if mode == ModeCreate && d.ImageCount() == 0 {
		fields = append(fields, pkgerrors.FieldError{Field: "images", Message: "Add at least one image"})
	}
	if d.ImageCount() > limits.MaxImages {
		fields = append(fields, pkgerrors.FieldError{
			Field:   "images",
			Message: fmt.Sprintf("You can upload up to %d images", limits.MaxImages),
		})
	}
	if len(fields) == 0 {
		return nil
	}
	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, f.Message)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, strings.Join(messages, ". ")).WithDetails(fields)
}

// Payload is the request body sent to the publications endpoints.
type Payload struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Stock       int         `json:"stock"`
	Category    string      `json:"category"`
	Campus      string      `json:"campus,omitempty"`
	Images      []string    `json:"images,omitempty"`
}

// Encode converts the draft into a request body: images become data URIs,
// an unparsable price becomes 0 and an unparsable stock becomes 1.
func (d Draft) Encode(limits Limits) (Payload, error) {
	limits = limits.normalized()
	t := d.trimmed()

	images := make([]string, 0, d.ImageCount())
	images = append(images, t.Existing...)
	for _, img := range d.Images {
		if int64(len(img.Data)) > limits.MaxImageBytes {
			return Payload{}, imageError(fmt.Sprintf("Images must be %dMB or smaller", limits.MaxImageBytes>>20))
		}
		uri, err := DataURI(img.Data)
		if err != nil {
			return Payload{}, err
		}
		images = append(images, uri)
	}

	return Payload{
		Title:       t.Title,
		Description: t.Description,
		Price:       json.Number(ParsePrice(t.Price).String()),
		Stock:       ParseStock(t.Stock),
		Category:    t.Category,
		Campus:      t.Campus,
		Images:      images,
	}, nil
}

// DataURI renders raw image bytes as data:<mime>;base64,<payload>.
func DataURI(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", imageError("Only image files can be attached")
	}
	mime := strings.SplitN(mt.String(), ";", 2)[0]
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParsePrice reads a price typed by the user; failures and negatives yield 0.
func ParsePrice(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	cleaned = strings.TrimPrefix(cleaned, "$")
	price, err := decimal.NewFromString(cleaned)
	if err != nil || price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// ParseStock reads a stock count; failures and values below 1 yield 1.
func ParseStock(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return defaultStock
	}
	return n
}

// DraftFromPublication pre-fills an edit session.
func DraftFromPublication(p Publication) Draft {
	return Draft{
		Title:       p.Title,
		Price:       p.Price.String(),
		Stock:       strconv.Itoa(p.Stock),
		Category:    p.Category,
		Campus:      p.Campus,
		Description: p.Description,
		Existing:    append([]string(nil), p.Images...),
	}
}

func (d Draft) trimmed() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Price = strings.TrimSpace(d.Price)
	d.Stock = strings.TrimSpace(d.Stock)
	d.Category = strings.TrimSpace(d.Category)
	d.Campus = strings.TrimSpace(d.Campus)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

func isImage(data []byte) bool {
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}

func imageError(message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails([]pkgerrors.FieldError{{Field: "images", Message: message}})
}
