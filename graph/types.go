package graph

import "time"

// Attachment odata types.
const (
	FileAttachmentType      = "#microsoft.graph.fileAttachment"
	ItemAttachmentType      = "#microsoft.graph.itemAttachment"
	ReferenceAttachmentType = "#microsoft.graph.referenceAttachment"
)

// Body content types.
const (
	ContentTypeHTML = "HTML"
	ContentTypeText = "Text"
)

// Profile is the subset of /me used to identify an account.
type Profile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Identity returns the mail address, falling back to the principal name.
func (p *Profile) Identity() string {
	if p.Mail != "" {
		return p.Mail
	}
	return p.UserPrincipalName
}

// Attachment is attachment metadata, with ContentBytes populated only for
// file attachments fetched individually. encoding/json handles the base64.
type Attachment struct {
	ODataType            string     `json:"@odata.type,omitempty"`
	ID                   string     `json:"id,omitempty"`
	Name                 string     `json:"name"`
	ContentType          string     `json:"contentType,omitempty"`
	Size                 int64      `json:"size,omitempty"`
	IsInline             bool       `json:"isInline"`
	LastModifiedDateTime *time.Time `json:"lastModifiedDateTime,omitempty"`
	ContentBytes         []byte     `json:"contentBytes,omitempty"`
}

func (a *Attachment) IsItem() bool {
	return a.ODataType == ItemAttachmentType
}

type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// RecipientsOf builds recipient entries in the order given.
func RecipientsOf(addresses []string) []Recipient {
	if len(addresses) == 0 {
		return nil
	}
	recipients := make([]Recipient, 0, len(addresses))
	for _, addr := range addresses {
		recipients = append(recipients, Recipient{EmailAddress: EmailAddress{Address: addr}})
	}
	return recipients
}

type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Message is an outgoing message.
type Message struct {
	Subject       string       `json:"subject"`
	Body          ItemBody     `json:"body"`
	ToRecipients  []Recipient  `json:"toRecipients"`
	CcRecipients  []Recipient  `json:"ccRecipients,omitempty"`
	BccRecipients []Recipient  `json:"bccRecipients,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

type sendMailRequest struct {
	Message         *Message `json:"message"`
	SaveToSentItems *bool    `json:"saveToSentItems,omitempty"`
}

type attachmentList struct {
	Value []Attachment `json:"value"`
}
