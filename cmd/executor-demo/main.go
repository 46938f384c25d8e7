package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
	"github.com/zlomke76-del/solace-adapter/pkg/receipt"
	sdkverifier "github.com/zlomke76-del/solace-adapter/sdk/verifier"
)

func main() {
	pubKeyPEM := []byte(os.Getenv("RECEIPT_PUBLIC_KEY_PEM"))
	if len(pubKeyPEM) == 0 {
		log.Fatal("executor-demo: RECEIPT_PUBLIC_KEY_PEM is required")
	}
	pubKey, err := receipt.ParsePublicKeyPEM(pubKeyPEM)
	if err != nil {
		log.Fatalf("executor-demo: parse receipt public key: %v", err)
	}

	serviceName := os.Getenv("EXECUTOR_SERVICE_NAME")
	if serviceName == "" {
		log.Fatal("executor-demo: EXECUTOR_SERVICE_NAME is required")
	}

	addr := os.Getenv("EXECUTOR_ADDR")
	if addr == "" {
		addr = ":9090"
	}

	client := sdkverifier.NewClient(pubKey, serviceName)

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/execute", handleExecute(client))

	log.Printf("executor-demo: listening on %s as service %q", addr, serviceName)
	if err := r.Run(addr); err != nil {
		log.Fatalf("executor-demo: exited: %v", err)
	}
}

func handleExecute(client *sdkverifier.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body domain.ForwardBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, domain.VerifyResult{Reason: "invalid_json"})
			return
		}

		result, err := client.VerifyHTTPRequest(c.Request, "x-solace-receipt", body.Execute)
		if err != nil {
			c.JSON(http.StatusInternalServerError, domain.VerifyResult{Reason: "verifier_misconfigured"})
			return
		}
		if !result.OK {
			c.JSON(http.StatusForbidden, domain.VerifyResult{Reason: result.Reason})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "accepted",
			"receiptId": result.Receipt.ReceiptID,
		})
	}
}
