package whatsapp

import "fmt"

// webhookPayload is the envelope delivered to the webhook endpoint.
type webhookPayload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      string   `json:"id"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string      `json:"field"`
	Value changeValue `json:"value"`
}

type changeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []inboundMessage `json:"messages,omitempty"`
	Statuses         []status         `json:"statuses,omitempty"`
}

type status struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// inboundMessage is one message inside a webhook delivery.
type inboundMessage struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *textBody    `json:"text,omitempty"`
	Image       *mediaBody   `json:"image,omitempty"`
	Audio       *mediaBody   `json:"audio,omitempty"`
	Video       *mediaBody   `json:"video,omitempty"`
	Document    *mediaBody   `json:"document,omitempty"`
	Sticker     *mediaBody   `json:"sticker,omitempty"`
	Location    *location    `json:"location,omitempty"`
	Contacts    []contact    `json:"contacts,omitempty"`
	Interactive *interactive `json:"interactive,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type mediaBody struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type contact struct {
	Name struct {
		FormattedName string `json:"formatted_name"`
	} `json:"name"`
}

type interactive struct {
	Type        string       `json:"type"`
	ButtonReply *buttonReply `json:"button_reply,omitempty"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// sendRequest is the request body for POST /{phone_number_id}/messages.
type sendRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textBody        `json:"text,omitempty"`
	Image            *mediaLink       `json:"image,omitempty"`
	Interactive      *sendInteractive `json:"interactive,omitempty"`
}

// mediaLink is an outbound media attachment addressed by public URL.
type mediaLink struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type sendInteractive struct {
	Type   string         `json:"type"`
	Body   textBody       `json:"body"`
	Action sendButtonList `json:"action"`
}

type sendButtonList struct {
	Buttons []sendButton `json:"buttons"`
}

type sendButton struct {
	Type  string          `json:"type"`
	Reply sendButtonReply `json:"reply"`
}

type sendButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// sendResponse is the success body of a send request.
type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// mediaInfo is the response of GET /{media_id}.
type mediaInfo struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// apiError is the Graph API error envelope.
type apiError struct {
	Err struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// APIError represents an error returned by the Cloud API.
type APIError struct {
	Code    int
	Type    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: %d %s: %s", e.Code, e.Type, e.Message)
}
