package services

import (
	"fmt"
	"time"
)

const (
	subjectRecoveryCode   = "Password recovery code"
	subjectPasswordReset  = "Password reset successfully"
	subjectAccountCreated = "Account created successfully"
)

func recoveryCodeBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your password recovery code is: %s\n\nIt expires in %d minutes.", code, int(ttl.Minutes()))
}

func passwordResetBody() string {
	return "Your password has been reset successfully.\n\nIf you did not request this change, contact support immediately."
}

func accountCreatedBody(name string) string {
	return fmt.Sprintf("Hello %s,\n\nYour Cashflow account has been created successfully.\nYou can now sign in and start managing your finances.", name)
}
