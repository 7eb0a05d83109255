package model

import (
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"
)

const (
	ErrorParams               = 100001
	ErrorEmptyId              = 100002
	ErrorNewRepo              = 100003
	ErrorDB                   = 100004
	ErrorInvalidInput         = 100005
	ErrorConfiguration        = 100006
	ErrorEmbeddingUnavailable = 100007
	ErrorDocumentNotFound     = 100008
	ErrorLLM                  = 100009
	ErrorWooCommerce          = 100010
)

var ErrorMessages = map[int]string{
	ErrorParams:               "פרמטרים שגויים",
	ErrorEmptyId:              "מזהה חסר",
	ErrorNewRepo:              "יצירת מאגר נכשלה",
	ErrorDB:                   "שגיאת מסד נתונים",
	ErrorInvalidInput:         "קלט לא תקין",
	ErrorConfiguration:        "תצורה לא תקינה",
	ErrorEmbeddingUnavailable: "שירות ההטמעה אינו זמין",
	ErrorDocumentNotFound:     "המסמך לא נמצא",
	ErrorLLM:                  "שגיאה במודל השפה",
	ErrorWooCommerce:          "שגיאה בחיבור לחנות",
}

type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	InnerError error  `json:"inner_error"`
}

func (err Error) Error() string {
	return err.Message
}

func (err Error) String() string {
	return err.InnerError.Error()
}

func NewError(code int, innerError error) *Error {
	if innerError != nil {
		var re = regexp.MustCompile(`[\n\t]+`)
		innerErrorString := re.ReplaceAllString(fmt.Sprintf("%+v", innerError), " ")
		log.Errorf("NewError code:%d, message:%s, innerError:%+v\n", code, ErrorMessages[code], innerErrorString)
	}
	return &Error{
		Code:       code,
		Message:    ErrorMessages[code],
		InnerError: nil,
	}
}

func NewErrorWithMessage(code int, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		InnerError: nil,
	}
}
