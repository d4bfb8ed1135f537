package email

import (
	"fmt"
	"strings"

	"github.com/gfontenele/quickshop/internal/domain"
)

// RenderConfirmation builds the plain-text order summary for a recorded
// transaction.
func RenderConfirmation(tx *domain.Transaction) (subject, body string) {
	subject = fmt.Sprintf("Order Confirmation - QuickShop (Order #%s)", tx.OrderID)

	var b strings.Builder
	b.WriteString("QuickShop - Order Confirmation\n\n")
	b.WriteString("Thank you for your order!\n\n")
	b.WriteString("Order Details:\n")
	fmt.Fprintf(&b, "- Order ID: %s\n", tx.OrderID)
	fmt.Fprintf(&b, "- Transaction ID: %s\n", tx.ID)
	fmt.Fprintf(&b, "- Date: %s\n", tx.CreatedAt.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "- Total Amount: %s %s\n\n", tx.Amount.Decimal().StringFixed(2), strings.ToUpper(tx.Amount.Currency))

	if len(tx.Lines) > 0 {
		b.WriteString("Order Items:\n")
		for _, line := range tx.Lines {
			fmt.Fprintf(&b, "%s - Qty: %d - %s each - Total: %s\n",
				line.Title,
				line.Quantity,
				line.UnitPrice.Decimal().StringFixed(2),
				line.Subtotal().Decimal().StringFixed(2),
			)
		}
		b.WriteString("\n")
	}

	if addr := tx.ShippingAddress; addr != nil {
		b.WriteString("Shipping Address:\n")
		fmt.Fprintf(&b, "%s\n%s\n%s, %s %s\n%s\n\n", addr.Name, addr.Address, addr.City, addr.State, addr.PostalCode, addr.Country)
	}

	b.WriteString("What's Next?\n")
	b.WriteString("- You will receive a shipping confirmation email once your order is dispatched\n")
	fmt.Fprintf(&b, "- Track your order using the order ID: %s\n", tx.OrderID)
	b.WriteString("- If you have any questions, contact our support team\n\n")
	b.WriteString("Thank you for shopping with QuickShop!\n")

	return subject, b.String()
}
