package model

import (
	"net/http"

	"github.com/dbroute/dbroute/common"
)

const (
	E_SUCCESS string = "0000"
	E_UNKNOWN string = "9999"

	E_INVALID_PARAMS   string = "5000"
	E_DATA_NOT_EXIST   string = "5001"
	E_DATA_DUPLICATED  string = "5002"
	E_CONFIG_FAILED    string = "5003"
	E_CRYPTO_FAILED    string = "5004"
	E_CONNECT_FAILED   string = "5005"
	E_UNSUPPORTED_KIND string = "5006"
	E_QUERY_FAILED     string = "5007"
	E_EXECUTE_FAILED   string = "5008"

	E_JWT_TOKEN_EXPIRED     string = "5020"
	E_JWT_TOKEN_INVALID     string = "5021"
	E_JWT_TOKEN_NONE        string = "5022"
	E_JWT_TOKEN_IP_MISMATCH string = "5023"
	E_CREAT_TOKEN_FAIL      string = "5024"
	E_USER_VERIFY_FAIL      string = "5025"
	E_PASSWORD_VERIFY_FAIL  string = "5026"
	E_PERMISSION_DENIED     string = "5027"
	E_TOO_MANY_REQUESTS     string = "5028"

	E_DATA_INSERT_FAILED string = "5100"
	E_DATA_UPDATE_FAILED string = "5101"
	E_DATA_SELECT_FAILED string = "5102"
)

type CodeMessage struct {
	Msg    string
	Status int
}

var Messages = map[string]CodeMessage{
	E_SUCCESS: {"success", http.StatusOK},
	E_UNKNOWN: {"unknown error", http.StatusInternalServerError},

	E_INVALID_PARAMS:   {"invalid params", http.StatusBadRequest},
	E_DATA_NOT_EXIST:   {"data not exist", http.StatusNotFound},
	E_DATA_DUPLICATED:  {"data duplicated", http.StatusConflict},
	E_CONFIG_FAILED:    {"invalid connection configuration", http.StatusUnprocessableEntity},
	E_CRYPTO_FAILED:    {"credential cannot be decrypted", http.StatusUnprocessableEntity},
	E_CONNECT_FAILED:   {"connect to database failed", http.StatusBadGateway},
	E_UNSUPPORTED_KIND: {"database kind not supported", http.StatusUnprocessableEntity},
	E_QUERY_FAILED:     {"query execution failed", http.StatusBadGateway},
	E_EXECUTE_FAILED:   {"no connection executed successfully", http.StatusBadRequest},

	E_JWT_TOKEN_EXPIRED:     {"token expired", http.StatusUnauthorized},
	E_JWT_TOKEN_INVALID:     {"token invalid", http.StatusUnauthorized},
	E_JWT_TOKEN_NONE:        {"token is empty", http.StatusUnauthorized},
	E_JWT_TOKEN_IP_MISMATCH: {"client ip mismatch", http.StatusUnauthorized},
	E_CREAT_TOKEN_FAIL:      {"create token failed", http.StatusInternalServerError},
	E_USER_VERIFY_FAIL:      {"user verify failed", http.StatusUnauthorized},
	E_PASSWORD_VERIFY_FAIL:  {"password verify failed", http.StatusUnauthorized},
	E_PERMISSION_DENIED:     {"permission denied", http.StatusForbidden},
	E_TOO_MANY_REQUESTS:     {"too many requests", http.StatusTooManyRequests},

	E_DATA_INSERT_FAILED: {"insert data failed", http.StatusInternalServerError},
	E_DATA_UPDATE_FAILED: {"update data failed", http.StatusInternalServerError},
	E_DATA_SELECT_FAILED: {"select data failed", http.StatusInternalServerError},
}

func GetMsg(code string) string {
	if m, ok := Messages[code]; ok {
		return m.Msg
	}
	return Messages[E_UNKNOWN].Msg
}

func HttpStatus(code string) int {
	if m, ok := Messages[code]; ok {
		return m.Status
	}
	return http.StatusInternalServerError
}

// CodeOf picks the return code for an error of the domain taxonomy,
// fallback is used for errors outside of it.
func CodeOf(err error, fallback string) string {
	switch common.KindOf(err) {
	case common.KindValidation:
		return E_INVALID_PARAMS
	case common.KindNotFound:
		return E_DATA_NOT_EXIST
	case common.KindConfig:
		return E_CONFIG_FAILED
	case common.KindCrypto:
		return E_CRYPTO_FAILED
	case common.KindConnectivity:
		return E_CONNECT_FAILED
	case common.KindUnsupported:
		return E_UNSUPPORTED_KIND
	case common.KindQuery:
		return E_QUERY_FAILED
	}
	return fallback
}
