package submission

import "encoding/json"

// Document é o documento enviado ao endpoint de criação.
//
// O formato de fio (JSON) é fixo: o INN do participante aparece duas vezes,
// em description.participantInn e em participant_inn.
type Document struct {
	ParticipantInn string    `yaml:"participant_inn"`
	DocID          string    `yaml:"doc_id"`
	DocStatus      string    `yaml:"doc_status"`
	DocType        string    `yaml:"doc_type"`
	ImportRequest  bool      `yaml:"import_request"`
	OwnerInn       string    `yaml:"owner_inn"`
	ProducerInn    string    `yaml:"producer_inn"`
	ProductionDate string    `yaml:"production_date"`
	ProductionType string    `yaml:"production_type"`
	Products       []Product `yaml:"products"`
	RegDate        string    `yaml:"reg_date"`
	RegNumber      string    `yaml:"reg_number"`
}

type Product struct {
	CertificateDocument       string `json:"certificate_document" yaml:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date" yaml:"certificate_document_date"`
	CertificateDocumentNumber string `json:"certificate_document_number" yaml:"certificate_document_number"`
	OwnerInn                  string `json:"owner_inn" yaml:"owner_inn"`
	ProducerInn               string `json:"producer_inn" yaml:"producer_inn"`
	ProductionDate            string `json:"production_date" yaml:"production_date"`
	TnvedCode                 string `json:"tnved_code" yaml:"tnved_code"`
	UitCode                   string `json:"uit_code" yaml:"uit_code"`
	UituCode                  string `json:"uitu_code" yaml:"uitu_code"`
}

type description struct {
	ParticipantInn string `json:"participantInn"`
}

// documentWire fixa nomes e ordem dos campos no JSON.
type documentWire struct {
	Description    description `json:"description"`
	DocID          string      `json:"doc_id"`
	DocStatus      string      `json:"doc_status"`
	DocType        string      `json:"doc_type"`
	ImportRequest  bool        `json:"importRequest"`
	OwnerInn       string      `json:"owner_inn"`
	ParticipantInn string      `json:"participant_inn"`
	ProducerInn    string      `json:"producer_inn"`
	ProductionDate string      `json:"production_date"`
	ProductionType string      `json:"production_type"`
	Products       []Product   `json:"products"`
	RegDate        string      `json:"reg_date"`
	RegNumber      string      `json:"reg_number"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	products := d.Products
	if products == nil {
		products = []Product{}
	}
	return json.Marshal(documentWire{
		Description:    description{ParticipantInn: d.ParticipantInn},
		DocID:          d.DocID,
		DocStatus:      d.DocStatus,
		DocType:        d.DocType,
		ImportRequest:  d.ImportRequest,
		OwnerInn:       d.OwnerInn,
		ParticipantInn: d.ParticipantInn,
		ProducerInn:    d.ProducerInn,
		ProductionDate: d.ProductionDate,
		ProductionType: d.ProductionType,
		Products:       products,
		RegDate:        d.RegDate,
		RegNumber:      d.RegNumber,
	})
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	inn := w.ParticipantInn
	if inn == "" {
		inn = w.Description.ParticipantInn
	}
	*d = Document{
		ParticipantInn: inn,
		DocID:          w.DocID,
		DocStatus:      w.DocStatus,
		DocType:        w.DocType,
		ImportRequest:  w.ImportRequest,
		OwnerInn:       w.OwnerInn,
		ProducerInn:    w.ProducerInn,
		ProductionDate: w.ProductionDate,
		ProductionType: w.ProductionType,
		Products:       w.Products,
		RegDate:        w.RegDate,
		RegNumber:      w.RegNumber,
	}
	return nil
}
