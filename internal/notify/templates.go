package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// ConfirmationData feeds the registration receipt email.
type ConfirmationData struct {
	Name          string
	Event         string
	College       string
	Year          string
	Amount        int64
	TransactionID string
}

// ODLetterData feeds the on-duty letter email.
type ODLetterData struct {
	Name      string
	College   string
	Year      string
	Event     string
	EventDate string
	Date      string
	Ref       string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#0a0a0f;font-family:Segoe UI,Tahoma,Geneva,Verdana,sans-serif;">
<div style="max-width:600px;margin:0 auto;padding:40px 20px;">
<div style="text-align:center;margin-bottom:40px;">
<div style="display:inline-block;background:linear-gradient(135deg,#00d4ff,#ff00ff);padding:15px 30px;border-radius:50px;">
<h1 style="margin:0;color:#0a0a0f;font-size:28px;font-weight:bold;">&#9889; IMPULSE 2025</h1>
</div>
<p style="color:#888;margin-top:15px;font-size:14px;">EEE Department Symposium</p>
</div>

<div style="background:linear-gradient(135deg,rgba(0,212,255,.1),rgba(255,0,255,.1));border:1px solid rgba(0,212,255,.3);border-radius:16px;padding:30px;margin-bottom:30px;">
<h2 style="color:#00d4ff;margin:0 0 15px;font-size:24px;">&#127881; Registration Successful!</h2>
<p style="color:#e0e0e0;line-height:1.6;">
Dear <strong style="color:#00d4ff;">{{.Name}}</strong>,<br><br>
Your registration for <strong style="color:#ff00ff;">{{.Event}}</strong> has been confirmed.
</p>
</div>

<div style="background:rgba(255,255,255,.05);border:1px solid rgba(255,255,255,.1);border-radius:16px;padding:25px;margin-bottom:30px;">
<h3 style="color:#00d4ff;margin-bottom:20px;">&#128203; Registration Details</h3>
<table style="width:100%;border-collapse:collapse;">
<tr><td style="color:#888;">College</td><td style="color:#e0e0e0;text-align:right;">{{.College}}</td></tr>
<tr><td style="color:#888;">Year</td><td style="color:#e0e0e0;text-align:right;">{{.Year}}</td></tr>
<tr><td style="color:#888;">Amount Paid</td><td style="color:#00ff88;text-align:right;">&#8377;{{.Amount}}</td></tr>
<tr><td style="color:#888;">Transaction ID</td><td style="color:#e0e0e0;text-align:right;font-family:monospace;">{{.TransactionID}}</td></tr>
</table>
</div>

<div style="text-align:center;color:#666;font-size:12px;">
&copy; 2025 IMPULSE &ndash; EEE Department Symposium
</div>
</div>
</body>
</html>
`))

var odLetterTmpl = template.Must(template.New("od-letter").Parse(`<!DOCTYPE html>
<html>
<body style="background:#0a0a0f; font-family:Segoe UI,Tahoma,Verdana,sans-serif; padding:30px;">
  <div style="max-width:700px; margin:auto;">
    <h2 style="color:#00d4ff;">&#9889; IMPULSE 2025 &ndash; On Duty Letter</h2>
    <p style="color:#e0e0e0;">
      Dear {{.Name}},<br><br>
      Please find your OD letter below. You may print and submit it to your college.
    </p>
    <div style="background:#fff; border-radius:8px; padding:10px;">
<div style="font-family: 'Times New Roman', Times, serif; font-size:14px; line-height:1.6; color:#000; background:#fff; padding:40px; max-width:700px; margin:0 auto;">
  <div style="text-align:center; border-bottom:3px double #000; padding-bottom:20px; margin-bottom:30px;">
    <h1 style="font-size:24px; margin:0; color:#1a365d;">DEPARTMENT OF ELECTRICAL AND ELECTRONICS ENGINEERING</h1>
    <h2 style="font-size:18px; margin:5px 0; font-weight:normal;">IMPULSE 2025 - National Level Technical Symposium</h2>
    <p style="margin:5px 0; font-size:12px;">{{.EventDate}}</p>
  </div>

  <div style="text-align:right; margin-bottom:30px;">
    <p>Date: {{.Date}}</p>
    <p>Ref: IMPULSE/OD/{{.Ref}}</p>
  </div>

  <p><strong>To,</strong></p>
  <p>The Principal / Head of the Department,<br>{{.College}}</p>

  <p style="text-align:center; font-weight:bold; text-decoration:underline; margin:30px 0;">
    Subject: On-Duty Letter for Participation in IMPULSE 2025
  </p>

  <p>Respected Sir/Madam,</p>

  <p style="text-indent:50px;">
    This is to certify that <strong>{{.Name}}</strong>, studying <strong>{{.Year}}</strong>,
    has participated in <strong>{{.Event}}</strong> during <strong>IMPULSE 2025</strong>,
    conducted on <strong>{{.EventDate}}</strong>.
  </p>

  <div style="margin-left:50px;">
    <p>Name: {{.Name}}</p>
    <p>Year: {{.Year}}</p>
    <p>Event: {{.Event}}</p>
    <p>College: {{.College}}</p>
  </div>

  <p style="text-indent:50px;">
    We kindly request you to grant On-Duty permission for the above student.
  </p>

  <p>Thanking you,</p>

  <div style="text-align:right; margin-top:60px;">
    <p>Yours faithfully,</p>
    <p><strong>Event Coordinator</strong></p>
    <p>IMPULSE 2025</p>
    <p>Department of EEE</p>
  </div>

  <p style="font-size:12px; font-style:italic;">
    (This is a computer-generated letter and does not require a signature)
  </p>
</div>
    </div>
    <p style="text-align:center; color:#666; font-size:12px; margin-top:20px;">
      &copy; 2025 IMPULSE &ndash; EEE Department Symposium
    </p>
  </div>
</body>
</html>
`))

// RenderConfirmation produces the registration receipt HTML.
func RenderConfirmation(data ConfirmationData) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render confirmation: %w", err)
	}
	return buf.String(), nil
}

// RenderODLetter produces the on-duty letter HTML. Date and Ref are filled in
// when absent.
func RenderODLetter(data ODLetterData) (string, error) {
	if data.Date == "" {
		data.Date = time.Now().Format("02 January 2006")
	}
	if data.Ref == "" {
		data.Ref = odReference(time.Now())
	}
	var buf bytes.Buffer
	if err := odLetterTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render od letter: %w", err)
	}
	return buf.String(), nil
}

// ConfirmationSubject builds the receipt subject line.
func ConfirmationSubject(event string) string {
	return fmt.Sprintf("\U0001F389 %s Registration Confirmed | IMPULSE 2025", event)
}

// ODLetterSubject builds the on-duty letter subject line.
func ODLetterSubject(event string) string {
	return fmt.Sprintf("OD Letter – %s | IMPULSE 2025", event)
}

// odReference derives a short reference number from the timestamp, matching
// the format printed on issued letters.
func odReference(now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return millis
}
