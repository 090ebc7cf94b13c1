package http

import (
	"net/http"

	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/slumberware/slumber/pkg/slumbersdk"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify JWTs.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	slumbersdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, slumbersdk.JWKSResponse(keys.PublicJWKS()))
	}
}
