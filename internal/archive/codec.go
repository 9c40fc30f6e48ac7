package archive

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

// encodeRow writes r as a JSON object. Prices are strings to keep them exact.
func encodeRow(e *jx.Encoder, r orderlog.Row) {
	e.ObjStart()
	e.FieldStart("bill_number")
	e.Str(r.BillNumber)
	e.FieldStart("item")
	e.Str(r.Item)
	e.FieldStart("quantity")
	e.Int(r.Quantity)
	e.FieldStart("price")
	e.Str(r.Price.String())
	e.FieldStart("date")
	e.Str(r.Date)
	e.FieldStart("time")
	e.Str(r.Time)
	e.FieldStart("payment_type")
	e.Str(string(r.PaymentType))
	e.ObjEnd()
}

func decodeRow(d *jx.Decoder) (orderlog.Row, error) {
	var r orderlog.Row
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "bill_number":
			r.BillNumber, err = d.Str()
		case "item":
			r.Item, err = d.Str()
		case "quantity":
			r.Quantity, err = d.Int()
		case "price":
			var s string
			if s, err = d.Str(); err != nil {
				return err
			}
			r.Price, err = decimal.NewFromString(s)
		case "date":
			r.Date, err = d.Str()
		case "time":
			r.Time, err = d.Str()
		case "payment_type":
			var s string
			s, err = d.Str()
			r.PaymentType = billing.PaymentType(s)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return orderlog.Row{}, err
	}
	return r, nil
}
