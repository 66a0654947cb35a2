package tools

import "encoding/json"

type paymentGuidance struct {
	Success         bool              `json:"success"`
	Methods         []string          `json:"methods"`
	Process         []string          `json:"process"`
	Tips            []string          `json:"tips"`
	Troubleshooting map[string]string `json:"troubleshooting"`
}

// paymentGuidancePayload is marshaled once at package load so repeated
// invocations return byte-identical payloads regardless of the question.
var paymentGuidancePayload = mustMarshalPayment()

func mustMarshalPayment() json.RawMessage {
	data, err := json.Marshal(paymentGuidance{
		Success: true,
		Methods: []string{
			"UPI (Google Pay, PhonePe, Paytm, BHIM)",
			"Direct bank transfer to the seller",
			"Cash on delivery where the seller offers it",
		},
		Process: []string{
			"1. Place your order and note the total amount",
			"2. Pay the seller through the UPI link or QR code on the order page",
			"3. Take a screenshot of the successful payment",
			"4. Upload the screenshot on the order page",
			"5. The seller verifies the screenshot and confirms your order",
		},
		Tips: []string{
			"Keep the payment screenshot until the order is delivered",
			"Make sure the transaction id is readable in the screenshot",
			"Pay the exact order amount so verification is quick",
		},
		Troubleshooting: map[string]string{
			"payment_failed":       "Retry from the order page; if money was deducted it is auto-refunded by your bank within 5-7 working days.",
			"screenshot_rejected":  "Re-upload a screenshot that clearly shows the amount, date and transaction id.",
			"upi_link_not_opening": "Copy the UPI id from the order page and pay directly from your UPI app.",
			"wrong_amount_paid":    "Contact the seller from the order page to settle the difference before confirmation.",
		},
	})
	if err != nil {
		panic("tools: marshal payment guidance: " + err.Error())
	}
	return data
}
