package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DemoResponse is the body served by the class demonstration endpoints.
type DemoResponse struct {
	Class   string `json:"class"`
	Message string `json:"message"`
}

// Demo returns a trivial handler guarded by the named limit class. The
// endpoint exists so operators can observe the quota headers and the 429
// contract for each class without a real workload behind it.
func Demo(class string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, DemoResponse{
			Class:   class,
			Message: "request admitted",
		})
	}
}
