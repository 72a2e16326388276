package issuance

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/yatra-gate/backend/internal/models"
)

// Subjects of the two ticket emails.
const (
	SubjectConfirmation = "YATRA 2026 // ENTRY PASS CONFIRMED"
	subjectEntryPass    = "YATRA 2026 // ENTRY PASS [%s]"
)

const pageHead = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>YATRA 2026 // ENTRY PASS</title>
</head>
<body style="margin: 0; padding: 20px; background-color: #000; font-family: 'Courier New', Courier, monospace;">
  <div style="max-width: 600px; margin: 0 auto; background: #fff; border: 6px solid #000;">
    <div style="background: #000; padding: 30px 20px; text-align: center; border-bottom: 6px solid #ff0;">
      <h1 style="color: #fff; margin: 0; font-size: 48px; font-weight: 900; letter-spacing: 8px;">YATRA</h1>
      <div style="color: #ff0; font-size: 24px; font-weight: 700; margin-top: 5px; letter-spacing: 4px;">2026</div>
    </div>
    <div style="padding: 30px 25px; background: #fff;">
      <div style="border: 4px solid #000; padding: 20px; margin-bottom: 25px; background: #f0f0f0;">
        <p style="margin: 0; font-size: 18px; font-weight: 700;">ATTENDEE:</p>
        <p style="margin: 8px 0 0 0; font-size: 28px; font-weight: 900; color: #000; text-transform: uppercase;">{{.Name}}</p>
      </div>`

const ticketBlock = `{{define "ticket"}}
      <div style="border: 6px solid #000; background: #000; padding: 25px; margin-bottom: 25px;">
        <div style="text-align: center;">
          <p style="margin: 0 0 15px 0; color: #ff0; font-size: 14px; font-weight: 700; letter-spacing: 3px;">// ENTRY CODE //</p>
          <div style="background: #fff; display: inline-block; padding: 20px 40px; border: 4px solid #ff0;">
            <span style="font-size: 48px; font-weight: 900; letter-spacing: 10px; color: #000;">{{.Code}}</span>
          </div>
        </div>
        <div style="text-align: center; margin-top: 25px; padding-top: 25px; border-top: 2px dashed #333;">
          <p style="margin: 0 0 15px 0; color: #fff; font-size: 12px; font-weight: 700; letter-spacing: 2px;">SCAN TO ENTER</p>
          <div style="background: #fff; display: inline-block; padding: 15px; border: 4px solid #ff0;">
            <img src="{{.QRSource}}" alt="QR" style="width: 180px; height: 180px; display: block;" />
          </div>
        </div>
      </div>
      <div style="border: 4px solid #f00; background: #f00; padding: 15px 20px; margin-bottom: 25px;">
        <p style="margin: 0; color: #fff; font-weight: 700; font-size: 14px; letter-spacing: 1px;">WARNING: BRING VALID ID + THIS TICKET FOR ENTRY VERIFICATION</p>
      </div>{{end}}`

const pageFoot = `
    </div>
    <div style="background: #000; padding: 20px; border-top: 6px solid #ff0;">
      <p style="margin: 0; color: #fff; font-size: 12px; text-align: center; font-weight: 700; letter-spacing: 2px;">RAJALAKSHMI INSTITUTE OF TECHNOLOGY</p>
      <p style="margin: 8px 0 0 0; color: #666; font-size: 10px; text-align: center; letter-spacing: 1px;">{{.Footer}}</p>
    </div>
  </div>
</body>
</html>`

var entryPassHTML = htmltemplate.Must(htmltemplate.New("entry_pass").Parse(pageHead + `
      <div style="border: 4px solid #0a0; background: #0a0; padding: 15px 20px; margin-bottom: 25px;">
        <p style="margin: 0; color: #fff; font-weight: 700; font-size: 16px; letter-spacing: 2px;">// REGISTRATION CONFIRMED //</p>
      </div>
      {{template "ticket" .}}
      <div style="background: #f0f0f0; border: 4px solid #000; padding: 20px;">
        <p style="margin: 0 0 10px 0; font-size: 14px; font-weight: 700;">VENUE:</p>
        <p style="margin: 0; font-size: 16px; font-weight: 500;">Rajalakshmi Institute of Technology</p>
      </div>` + pageFoot + ticketBlock))

var confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation").Parse(pageHead + `
      <div style="border: 4px solid #000; margin-bottom: 25px;">
        <table style="width: 100%; border-collapse: collapse;">
          <tr style="border-bottom: 2px solid #000;"><td style="padding: 15px 20px; font-weight: 700; background: #000; color: #fff; width: 35%;">EMAIL</td><td style="padding: 15px 20px; font-weight: 500;">{{.Email}}</td></tr>
          <tr style="border-bottom: 2px solid #000;"><td style="padding: 15px 20px; font-weight: 700; background: #000; color: #fff;">PHONE</td><td style="padding: 15px 20px; font-weight: 500;">{{.Phone}}</td></tr>
          <tr style="border-bottom: 2px solid #000;"><td style="padding: 15px 20px; font-weight: 700; background: #000; color: #fff;">COLLEGE</td><td style="padding: 15px 20px; font-weight: 500;">{{.College}}</td></tr>
          <tr style="border-bottom: 2px solid #000;"><td style="padding: 15px 20px; font-weight: 700; background: #000; color: #fff;">PASS TYPE</td><td style="padding: 15px 20px; font-weight: 700;">{{.PassType}}</td></tr>
          <tr><td style="padding: 15px 20px; font-weight: 700; background: #000; color: #fff;">PRICE</td><td style="padding: 15px 20px; font-size: 24px; font-weight: 900; background: #ff0;">{{.Price}}</td></tr>
        </table>
        {{if .RITStudent}}<div style="background: #0f0; padding: 12px 20px; border-top: 2px solid #000; font-weight: 700;">RIT STUDENT DISCOUNT APPLIED</div>{{end}}
      </div>
      {{if .HasTicket}}{{template "ticket" .}}{{end}}
      <div style="background: #f0f0f0; border: 4px solid #000; padding: 20px;">
        <p style="margin: 0; font-size: 16px; font-weight: 500; line-height: 1.6;">Get ready for the biggest cultural fest. See you there.</p>
      </div>` + pageFoot + ticketBlock))

var entryPassText = texttemplate.Must(texttemplate.New("entry_pass").Parse(`========================================
          YATRA 2026
          ENTRY PASS
========================================

ENTRY CODE: {{.Code}}

Present this code or scan QR at entrance.

!! WARNING: BRING VALID ID !!

----------------------------------------
RAJALAKSHMI INSTITUTE OF TECHNOLOGY
YATRA 2026 // AUTOMATED SYSTEM`))

var confirmationText = texttemplate.Must(texttemplate.New("confirmation").Parse(`========================================
          YATRA 2026
          ENTRY PASS
========================================

ATTENDEE: {{.Name}}

----------------------------------------
REGISTRATION DATA
----------------------------------------
EMAIL:     {{.Email}}
PHONE:     {{.Phone}}
COLLEGE:   {{.College}}
PASS TYPE: {{.PassType}}
PRICE:     {{.Price}}
{{if .RITStudent}}STATUS:    RIT STUDENT DISCOUNT
{{end}}----------------------------------------
{{if .HasTicket}}
========================================
        ENTRY CODE: {{.Code}}
========================================

Present this code or scan QR at entrance.

!! WARNING: BRING VALID ID FOR VERIFICATION !!

{{end}}----------------------------------------
RAJALAKSHMI INSTITUTE OF TECHNOLOGY
YATRA 2026 // AUTOMATED SYSTEM`))

// emailData feeds every ticket email template.
type emailData struct {
	Name       string
	Email      string
	Phone      string
	College    string
	PassType   string
	Price      string
	RITStudent bool
	HasTicket  bool
	Code       string
	// QRSource is a data:, https: or pre-signed URL produced by QRRenderer.
	QRSource htmltemplate.URL
	Footer   string
}

func registrationData(reg *models.Registration) emailData {
	d := emailData{
		Name:       reg.Name,
		Email:      reg.Email,
		Phone:      reg.Phone,
		College:    reg.College,
		PassType:   reg.TicketType,
		Price:      reg.Price,
		RITStudent: reg.IsRITStudent,
		Footer:     "YATRA 2026 // AUTOMATED SYSTEM",
	}
	if d.PassType == "" {
		d.PassType = "STANDARD"
	}
	if d.Price == "" {
		d.Price = "N/A"
	}
	return d
}

func render(html *htmltemplate.Template, text *texttemplate.Template, d emailData) (string, string, error) {
	var hb, tb bytes.Buffer
	if err := html.Execute(&hb, d); err != nil {
		return "", "", err
	}
	if err := text.Execute(&tb, d); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

// EntryPass renders the batch-issued entry pass email.
func EntryPass(reg *models.Registration, code, qrSource, issuedBy string) (html, text string, err error) {
	d := registrationData(reg)
	d.HasTicket = true
	d.Code = code
	d.QRSource = htmltemplate.URL(qrSource)
	d.Footer = "ISSUED BY: " + strings.ToUpper(issuedBy)
	return render(entryPassHTML, entryPassText, d)
}

// Confirmation renders the registration confirmation email. An empty code
// omits the ticket section.
func Confirmation(reg *models.Registration, code, qrSource string) (html, text string, err error) {
	d := registrationData(reg)
	d.HasTicket = code != ""
	d.Code = code
	d.QRSource = htmltemplate.URL(qrSource)
	return render(confirmationHTML, confirmationText, d)
}
