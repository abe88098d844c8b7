package flow

import "storefront/internal/catalog"

// ProductView is the view model for a single product card or detail view.
type ProductView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	Price         *int64 `json:"price"`
	InBasket      bool   `json:"in_basket"`
	CanBuy        bool   `json:"can_buy"`
}

// CatalogView is the view model for the product list screen.
type CatalogView struct {
	Products []ProductView `json:"products"`
}

// BasketLine is one numbered row of the basket view.
type BasketLine struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    *int64 `json:"price"`
}

// BasketView is the view model for the basket screen.
type BasketView struct {
	Lines       []BasketLine `json:"lines"`
	Total       int64        `json:"total"`
	CanCheckout bool         `json:"can_checkout"`
}

// AddressForm is the view model for the address and payment step.
type AddressForm struct {
	Address string   `json:"address"`
	Payment string   `json:"payment"`
	Errors  []string `json:"errors,omitempty"`
}

// ContactsForm is the view model for the contacts step. Submitting marks
// an in-flight order submission; the pay control stays disabled until it
// settles.
type ContactsForm struct {
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Errors     []string `json:"errors,omitempty"`
	CanPay     bool     `json:"can_pay"`
	Submitting bool     `json:"submitting"`
}

// SuccessView is the view model for the terminal screen.
type SuccessView struct {
	Message   string `json:"message"`
	Total     int64  `json:"total"`
	ShowTotal bool   `json:"show_total"`
}

// Presenter is the rendering collaborator. Each Show call replaces the
// content of the single modal surface (ShowCatalog targets the page
// itself); CloseModal clears it.
type Presenter interface {
	ShowCatalog(v CatalogView)
	ShowProduct(v ProductView)
	ShowBasket(v BasketView)
	ShowAddressForm(v AddressForm)
	ShowContactsForm(v ContactsForm)
	ShowSuccess(v SuccessView)
	CloseModal()
	SetBasketCount(count int)
}

// RenderProduct builds the view model for a product.
func RenderProduct(p catalog.Product, inBasket bool) ProductView {
	return ProductView{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Image:         p.Image,
		Category:      p.Category,
		CategoryLabel: catalog.Label(p.Category),
		Price:         p.Price,
		InBasket:      inBasket,
		CanBuy:        p.Priced() && !inBasket,
	}
}

// RenderCatalog builds the view model for the product list.
func RenderCatalog(products []catalog.Product, inBasket func(id string) bool) CatalogView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, RenderProduct(p, inBasket != nil && inBasket(p.ID)))
	}
	return CatalogView{Products: views}
}

// RenderBasket builds the view model for the basket. Line positions are
// 1-based insertion order.
func RenderBasket(items []catalog.Product, total int64) BasketView {
	lines := make([]BasketLine, 0, len(items))
	for i, p := range items {
		lines = append(lines, BasketLine{
			Position: i + 1,
			ID:       p.ID,
			Title:    p.Title,
			Price:    p.Price,
		})
	}
	return BasketView{
		Lines:       lines,
		Total:       total,
		CanCheckout: len(items) > 0 && total > 0,
	}
}
