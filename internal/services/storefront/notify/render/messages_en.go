package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "email.label.name", "Name")
	message.SetString(lang, "email.label.email", "Email")
	message.SetString(lang, "email.label.phone", "Phone")
	message.SetString(lang, "email.label.budget", "Budget")
	message.SetString(lang, "email.label.timeline", "Timeline")
	message.SetString(lang, "email.label.profession", "Profession")
	message.SetString(lang, "email.label.subject", "Subject")
	message.SetString(lang, "email.label.order", "Order")
	message.SetString(lang, "email.label.customer", "Customer")
	message.SetString(lang, "email.label.template", "Template")
	message.SetString(lang, "email.label.amount", "Amount")
	message.SetString(lang, "email.label.payment", "Payment")
	message.SetString(lang, "email.value.missing", defaultMissingValue)
	message.SetString(lang, "email.value.amount", "%s %d")

	message.SetString(lang, "email.contact_operator.subject", "New Contact/Booking: %s")
	message.SetString(lang, "email.contact_operator.heading", "New Message Received")
	message.SetString(lang, "email.contact_operator.body_title", "Message:")

	message.SetString(lang, "email.contact_confirmation.subject", "Booking Confirmation - PaidPortfolio")
	message.SetString(lang, "email.contact_confirmation.heading", "We received your request!")
	message.SetString(lang, "email.contact_confirmation.greeting", "Hi %s,")
	message.SetString(lang, "email.contact_confirmation.intro", "Thanks for getting in touch. We have received your message regarding:")

	message.SetString(lang, "email.custom_request_operator.subject", "New Custom Portfolio Request")
	message.SetString(lang, "email.custom_request_operator.body_title", "Description:")

	message.SetString(lang, "email.custom_request_confirmation.subject", "Custom Portfolio Request Received - PaidPortfolio")
	message.SetString(lang, "email.custom_request_confirmation.heading", "Your custom portfolio request is in!")
	message.SetString(lang, "email.custom_request_confirmation.intro", "Thanks for telling us about your project. We will review the details and reply with next steps.")

	message.SetString(lang, "email.order_completed.subject", "Payment Received: Order %s")
	message.SetString(lang, "email.order_completed.heading", "New Template Purchase")

	message.SetString(lang, "email.test.subject", "Test Email from Production")
	message.SetString(lang, "email.test.heading", "It Works!")
	message.SetString(lang, "email.test.body", "If you are seeing this, the email configuration is correct.")

	message.SetString(lang, "email.closing.reply_soon", "We will get back to you shortly.")
	message.SetString(lang, "email.closing.regards", "Best regards,")
	message.SetString(lang, "email.closing.signature", "The Team")
}
