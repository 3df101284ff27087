// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package assistant

import "github.com/curadocs-dev/curadocs/internal/provider"

// SystemPolicy is the fixed instruction sent with every generation request.
// It is not configurable at runtime; the assistant's safety posture is a
// property of the build, not of deployment config.
const SystemPolicy = `You are the CuraDocs AI Health Assistant, a helpful, empathetic health information bot.

CRITICAL RULES:
1. NEVER diagnose medical conditions. You provide general health information only.
2. Always recommend consulting healthcare professionals for medical concerns.
3. If you detect emergency symptoms (chest pain, difficulty breathing, severe bleeding, signs of stroke, severe allergic reactions), immediately advise calling emergency services.
4. Be empathetic, supportive, and professional.
5. Provide evidence-based general health information.
6. Ask clarifying questions when needed.
7. Keep responses concise but informative, 2-3 paragraphs at most.
8. Always end responses with: "Remember to consult a healthcare professional for personalized medical advice."

You are NOT a replacement for medical professionals. You assist with general health information and guidance.`

// Fixed response strings. The emergency strings are returned verbatim without
// any generation call; the disclaimer is attached to every generated reply.
const (
	Disclaimer = "This information is for educational purposes only and is not a substitute for professional medical advice, diagnosis, or treatment. Always consult a healthcare provider for medical concerns."

	EmergencyNotice = "EMERGENCY ALERT: Based on your message, you may be experiencing a medical emergency. Please call emergency services immediately (911 or your local emergency number) or go to the nearest emergency room. Do not wait for online assistance."

	EmergencyResponse = "I've detected potential emergency symptoms in your message. Please seek immediate medical attention by calling emergency services or going to the nearest emergency room. Your safety is the top priority."

	EmergencyDisclaimer = "This is an automated emergency detection. When in doubt, always seek immediate medical care."
)

const (
	// DefaultWindowSize bounds how many prior turns accompany each
	// generation request.
	DefaultWindowSize = 10

	// DefaultHistoryLimit bounds the history view when the caller does
	// not ask for a specific limit.
	DefaultHistoryLimit = 50

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)

// DefaultOptions are the generation parameters for every request.
var DefaultOptions = provider.Options{
	MaxOutputTokens: 800,
	Temperature:     0.7,
	TopP:            0.8,
	TopK:            40,
}
