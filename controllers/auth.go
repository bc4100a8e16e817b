package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/services"
	"brokerbook-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const otpValidity = 5 * time.Minute

type SignupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type VerifyOtpInput struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Email       string `json:"email" binding:"required,email"`
	Otp         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// issueOtp creates a fresh code for the email, replacing any earlier
// one, and mails it best-effort.
func issueOtp(mailer *services.Mailer, email, phone string) error {
	code := utils.GenerateOTP()

	// A fresh code supersedes any outstanding one.
	if err := config.DB.Unscoped().Where("email = ?", email).Delete(&models.Otp{}).Error; err != nil {
		return err
	}

	otp := models.Otp{
		Otp:       code,
		Email:     email,
		Phone:     phone,
		ExpiresAt: time.Now().Add(otpValidity),
	}
	if err := config.DB.Create(&otp).Error; err != nil {
		return err
	}

	if err := mailer.SendOtp(context.Background(), email, code); err != nil {
		log.Printf("Failed to email OTP to %s: %v", email, err)
	}
	return nil
}

// consumeOtp validates and destroys a code; it is single use.
func consumeOtp(email, code string) error {
	var otp models.Otp
	if err := config.DB.Where("email = ? AND otp = ?", email, code).First(&otp).Error; err != nil {
		return errors.New("invalid OTP")
	}
	if otp.IsExpired(time.Now()) {
		return errors.New("OTP has expired")
	}
	return config.DB.Unscoped().Delete(&otp).Error
}

// Signup creates an unverified user and sends a verification OTP.
func Signup(mailer *services.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input SignupInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		if !utils.ValidatePhone(input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}

		var existingUser models.User
		result := config.DB.Where("email = ?", input.Email).First(&existingUser)
		if result.Error == nil {
			utils.RespondWithError(c, http.StatusConflict, "Email already registered")
			return
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}

		newUser := models.User{
			Name:     input.Name,
			Email:    input.Email,
			Phone:    input.Phone,
			Password: input.Password, // Hashed in BeforeCreate hook
		}

		if err := config.DB.Create(&newUser).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
			return
		}

		if err := issueOtp(mailer, newUser.Email, newUser.Phone); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to issue OTP")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Signup successful, verify the OTP sent to your email",
			"user": gin.H{
				"id":    newUser.ID,
				"email": newUser.Email,
				"phone": newUser.Phone,
				"name":  newUser.Name,
			},
		})
	}
}

// VerifyOtp marks the user verified and returns a session token.
func VerifyOtp(c *gin.Context) {
	var input VerifyOtpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	if err := consumeOtp(input.Email, input.Otp); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.DB.Model(&user).Update("is_verified", true).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to verify user")
		return
	}

	token, err := utils.GenerateToken(user.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Verification successful",
		"token":   token,
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	email := strings.TrimSpace(input.Email)

	var user models.User
	result := config.DB.Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsVerified {
		utils.RespondWithError(c, http.StatusForbidden, "Account not verified")
		return
	}

	token, err := utils.GenerateToken(user.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)

	expiryHours := 24
	maxAge := expiryHours * 3600

	c.SetCookie(
		"token",
		token,
		maxAge,
		"/",
		"",
		true,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"phone": user.Phone,
			"name":  user.Name,
		},
	})
}

// ForgotPassword issues a reset OTP for an existing account.
func ForgotPassword(mailer *services.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ForgotPasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		var user models.User
		if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
			utils.RespondWithError(c, http.StatusNotFound, "User not found")
			return
		}

		if err := issueOtp(mailer, user.Email, user.Phone); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to issue OTP")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email"})
	}
}

// ResetPassword sets a new password after OTP verification.
func ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	if err := consumeOtp(input.Email, input.Otp); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	if err := config.DB.Model(&user).Update("password", hashed).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusInternalServerError, "User ID not found in context")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"name":       user.Name,
			"phone":      user.Phone,
			"isVerified": user.IsVerified,
		},
	})
}
