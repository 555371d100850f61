package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	config "github.com/skillswap/skill_exchange/configs"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/middleware"
	"github.com/skillswap/skill_exchange/models"
	"github.com/skillswap/skill_exchange/notifications"
	"github.com/skillswap/skill_exchange/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

const welcomeTokenGrant = 50

const (
	resetTokenTTL  = 15 * time.Minute
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 5
)

type AuthHandler struct {
	Mailer *notifications.EmailService
}

func NewAuthHandler(mailer *notifications.EmailService) *AuthHandler {
	return &AuthHandler{Mailer: mailer}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to hash password"})
	}

	verifyPlain, verifyHashed, err := utils.GenerateResetToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to prepare verification token"})
	}
	verifyExpiry := time.Now().Add(24 * time.Hour)

	var newUser models.User
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		newUser = models.User{
			Name:                       req.Name,
			Email:                      req.Email,
			Password:                   string(hashedPassword),
			TokensEarned:               welcomeTokenGrant,
			EmailVerificationToken:     &verifyHashed,
			EmailVerificationExpiresAt: &verifyExpiry,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.New("email already exists")
			}
			return err
		}

		// The signup grant goes through the ledger so the balance always
		// equals the sum of token_history deltas.
		grant := models.TokenTransaction{
			UserID: newUser.ID,
			Amount: welcomeTokenGrant,
			Type:   models.TokenTypeBonus,
			Reason: "Welcome bonus",
		}
		return tx.Create(&grant).Error
	})

	if err != nil {
		if err.Error() == "email already exists" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "Email already exists"})
		}
		log.Printf("🔥 Failed to register user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create user"})
	}

	verifyLink := fmt.Sprintf("%s/verify-email?token=%s", config.ConfigDefault("CLIENT_URL", "http://localhost:3000"), verifyPlain)
	go h.Mailer.Send(newUser.Name, newUser.Email, "Welcome to SkillSwap!",
		fmt.Sprintf("<h1>Welcome, %s!</h1><p>You start with %d tokens. List a skill you can teach and one you want to learn, then find a match.</p><p><a href='%s'>Verify your email</a></p>", newUser.Name, welcomeTokenGrant, verifyLink))

	t, err := issueToken(newUser)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create token"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "token": t, "user": newUser})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid email or password"})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Account is deactivated"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid email or password"})
	}

	now := time.Now()
	database.DB.Model(&user).Update("last_login", now)

	t, err := issueToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create token"})
	}

	return c.JSON(fiber.Map{"success": true, "token": t, "user": user})
}

func issueToken(user models.User) (string, error) {
	expire, err := time.ParseDuration(config.ConfigDefault("JWT_EXPIRE", "720h"))
	if err != nil {
		expire = 720 * time.Hour
	}

	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(expire).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Config("JWT_SECRET")))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var user models.User
	if err := database.DB.Preload("Skills").First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	type Request struct {
		Email string `json:"email" validate:"required,email"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	neutral := fiber.Map{"success": true, "message": "If an account with that email exists, a password reset link has been sent."}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.JSON(neutral)
	}

	plain, hashed, err := utils.GenerateResetToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to generate reset token"})
	}

	expiration := time.Now().Add(resetTokenTTL)
	user.ResetPasswordToken = &hashed
	user.ResetPasswordExpiresAt = &expiration
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to save reset token"})
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", config.ConfigDefault("CLIENT_URL", "http://localhost:3000"), plain)
	go h.Mailer.Send(user.Name, user.Email, "Your Password Reset Link",
		fmt.Sprintf("<h1>Password Reset</h1><p>Click the link below to reset your password. This link is valid for 15 minutes.</p><p><a href='%s'>Reset Password</a></p>", resetLink))

	// Development fallback: the token goes in the body so the flow stays
	// testable without a working mailer.
	if !config.IsProduction() {
		neutral["reset_token"] = plain
	}
	return c.JSON(neutral)
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	hashed := utils.HashToken(c.Params("token"))

	var user models.User
	if err := database.DB.Where("email_verification_token = ?", hashed).First(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid or expired verification token"})
	}
	if user.EmailVerificationExpiresAt == nil || user.EmailVerificationExpiresAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid or expired verification token"})
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to generate OTP"})
	}

	otpExpiry := time.Now().Add(otpTTL)
	user.EmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpiresAt = nil
	user.ResetOTP = &otp
	user.ResetOTPExpiresAt = &otpExpiry
	user.ResetOTPAttempts = 0
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to verify email"})
	}

	go h.Mailer.Send(user.Name, user.Email, "Your Verification Code",
		fmt.Sprintf("<h1>Verification Code</h1><p>Your one-time code is <strong>%s</strong>. It expires in 10 minutes.</p>", otp))

	return c.JSON(fiber.Map{"success": true, "message": "Email verified. A one-time code has been sent."})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	type Request struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required,len=6,numeric"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid or expired code"})
	}
	if user.ResetOTP == nil || user.ResetOTPExpiresAt == nil || user.ResetOTPExpiresAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid or expired code"})
	}
	if user.ResetOTPAttempts >= maxOTPAttempts {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "message": "Too many attempts. Request a new code."})
	}

	if *user.ResetOTP != req.OTP {
		database.DB.Model(&user).Update("reset_otp_attempts", user.ResetOTPAttempts+1)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid or expired code"})
	}

	plain, hashed, err := utils.GenerateResetToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to generate reset token"})
	}

	expiration := time.Now().Add(resetTokenTTL)
	user.ResetOTP = nil
	user.ResetOTPExpiresAt = nil
	user.ResetOTPAttempts = 0
	user.ResetPasswordToken = &hashed
	user.ResetPasswordExpiresAt = &expiration
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to save reset token"})
	}

	return c.JSON(fiber.Map{"success": true, "reset_token": plain})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	type Request struct {
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	hashed := utils.HashToken(c.Params("token"))

	var user models.User
	if err := database.DB.Where("reset_password_token = ?", hashed).First(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid or expired reset token"})
	}
	if user.ResetPasswordExpiresAt == nil || user.ResetPasswordExpiresAt.Before(time.Now()) {
		user.ResetPasswordToken = nil
		user.ResetPasswordExpiresAt = nil
		database.DB.Save(&user)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid or expired reset token"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to hash new password"})
	}

	user.Password = string(hashedPassword)
	user.ResetPasswordToken = nil
	user.ResetPasswordExpiresAt = nil
	user.ResetOTP = nil
	user.ResetOTPExpiresAt = nil
	user.ResetOTPAttempts = 0
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update password"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Password has been reset successfully."})
}
