package handler

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/middleware"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// intQuery reads an integer query parameter with a fallback.
func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// respondError maps a domain error kind to its HTTP status and writes the
// safe envelope.
func respondError(c *gin.Context, err error) {
	c.JSON(apierror.HTTPStatus(apierror.KindOf(err)), apierror.FromError(err))
}

// requestScope extracts the authenticated actor plus the tenant from the
// route. Writes the error response itself on failure.
func requestScope(c *gin.Context) (actorID, companyID uuid.UUID, ok bool) {
	actorID, ok = middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return uuid.Nil, uuid.Nil, false
	}
	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid company id"))
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, companyID, true
}
