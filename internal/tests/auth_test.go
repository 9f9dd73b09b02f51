// internal/tests/auth_test.go
package tests

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/testutil/wallet"
	"github.com/javajoker/licensechain/internal/utils"
)

func (suite *LicenseAPITestSuite) challenge(address string) services.Challenge {
	w, response := suite.do("POST", "/v1/auth/nonce", "", map[string]string{"address": address})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Challenge services.Challenge `json:"challenge"`
	}
	require.NoError(suite.T(), json.Unmarshal(response.Data, &data))
	return data.Challenge
}

func (suite *LicenseAPITestSuite) TestWalletSignIn() {
	account, err := wallet.New()
	require.NoError(suite.T(), err)

	c := suite.challenge(account.Address)
	assert.Equal(suite.T(), utils.ChecksumAddress(account.Address), c.Address)

	w, response := suite.do("POST", "/v1/auth/login", "", map[string]string{
		"address":   account.Address,
		"signature": account.SignPersonal(c.Message),
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		IsAdmin   bool   `json:"is_admin"`
	}
	require.NoError(suite.T(), json.Unmarshal(response.Data, &data))
	assert.Equal(suite.T(), "Bearer", data.TokenType)
	assert.False(suite.T(), data.IsAdmin)

	// The issued token works on protected routes.
	suite.tokens[c.Address] = data.Token
	w, _ = suite.do("GET", "/v1/licenses/mine", c.Address, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, response = suite.do("GET", "/v1/auth/me", c.Address, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var me struct {
		Session services.AuthResponse `json:"session"`
	}
	require.NoError(suite.T(), json.Unmarshal(response.Data, &me))
	assert.Equal(suite.T(), c.Address, me.Session.Address)
	assert.Empty(suite.T(), me.Session.AccessToken)
}

func (suite *LicenseAPITestSuite) TestSignInRejectsWrongSigner() {
	account, err := wallet.New()
	require.NoError(suite.T(), err)
	impostor, err := wallet.New()
	require.NoError(suite.T(), err)

	c := suite.challenge(account.Address)
	w, response := suite.do("POST", "/v1/auth/login", "", map[string]string{
		"address":   account.Address,
		"signature": impostor.SignPersonal(c.Message),
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	require.NotNil(suite.T(), response.Error)
	assert.Equal(suite.T(), "UNAUTHORIZED", response.Error.Code)
}

func (suite *LicenseAPITestSuite) TestSignInValidatesAddress() {
	w, response := suite.do("POST", "/v1/auth/nonce", "", map[string]string{"address": "0x" + strings.Repeat("g", 40)})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	require.NotNil(suite.T(), response.Error)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)

	w, _ = suite.do("GET", "/v1/auth/me", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}
