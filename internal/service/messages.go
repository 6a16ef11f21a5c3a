package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// FormatRupiah renders an amount as "Rp 40.000".
func FormatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

// FormatInvoiceMessage builds the WhatsApp receipt for a settled transaction.
func FormatInvoiceMessage(shopName string, tx domain.Transaction, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", shopName)
	fmt.Fprintf(&b, "Invoice: %s\n", tx.InvoiceCode)
	fmt.Fprintf(&b, "Tanggal: %s\n", tx.Date.In(loc).Format("02/01/2006 15:04"))
	if tx.BarberName != "" {
		fmt.Fprintf(&b, "Barber: %s\n", tx.BarberName)
	}
	if tx.CustomerName != nil && *tx.CustomerName != "" {
		fmt.Fprintf(&b, "Pelanggan: %s\n", *tx.CustomerName)
	}
	b.WriteString("\n*Layanan:*\n")
	for i, it := range tx.Items {
		fmt.Fprintf(&b, "%d. %s x%d = %s\n", i+1, it.Name, it.Qty, FormatRupiah(it.Price*int64(it.Qty)))
	}
	fmt.Fprintf(&b, "\n*Total: %s*\n", FormatRupiah(tx.TotalAmount))
	fmt.Fprintf(&b, "Pembayaran: %s\n", strings.ToUpper(string(tx.PaymentMethod)))
	b.WriteString("\nTerima kasih sudah berkunjung!")
	return b.String()
}

// FormatBookingConfirmation builds the WhatsApp message sent when a booking is confirmed.
func FormatBookingConfirmation(shopName string, bk domain.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", shopName)
	fmt.Fprintf(&b, "Halo %s, booking kamu sudah dikonfirmasi.\n\n", bk.CustomerName)
	fmt.Fprintf(&b, "Tanggal: %s\n", bk.BookingDate.Format("02/01/2006"))
	fmt.Fprintf(&b, "Jam: %s\n", bk.TimeSlot)
	if bk.BarberName != "" {
		fmt.Fprintf(&b, "Barber: %s\n", bk.BarberName)
	}
	if bk.ServiceName != "" {
		fmt.Fprintf(&b, "Layanan: %s\n", bk.ServiceName)
	}
	b.WriteString("\nSampai jumpa!")
	return b.String()
}
