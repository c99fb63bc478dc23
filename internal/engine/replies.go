package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/Robinhohocepied/mediflow/internal/frtime"
)

// Canned French replies. A ReplyGenerator may override greeting,
// identity acknowledgement and confirmation; everything else is always
// templated.

const (
	msgOptOut = "D’accord, nous ne vous enverrons plus de messages."

	msgGreeting = "Bonjour 👋 Vous êtes en contact avec l’assistant du cabinet dentaire. " +
		"Je peux vous aider à prendre, décaler ou annuler un rendez-vous. " +
		"En poursuivant, vous acceptez l’utilisation de vos informations pour gérer vos rendez-vous. " +
		"Tapez STOP pour ne plus recevoir de messages. En cas d’urgence vitale, appelez le 112.\n\n" +
		"Pour commencer, indiquez Nom + Prénom, votre date de naissance (JJ/MM/AAAA) et votre email."

	msgIdentityPrompt = "Pour commencer, indiquez Nom + Prénom, votre date de naissance (JJ/MM/AAAA) et votre email."
	msgAskName        = "Merci. Indiquez votre Nom + Prénom, s’il vous plaît."
	msgAskDOB         = "Merci. Indiquez votre date de naissance (JJ/MM/AAAA), s’il vous plaît."
	msgAskEmail       = "Merci. Indiquez votre adresse email, s’il vous plaît."

	msgServiceMenu = "Quel type de rendez-vous souhaitez-vous ?\n" +
		"1) Contrôle / prévention\n2) Détartrage\n3) Douleur / urgence"

	msgTriagePrompt = "Sur une échelle de 0 à 10, à combien évaluez-vous la douleur ? " +
		"Y a-t-il gonflement, fièvre ou traumatisme récent ?"

	msgHandoff = "Je vous mets en relation avec l’équipe. Merci de patienter."

	msgPreferencesRetry = "Pouvez-vous préciser un jour (ex. demain, lundi prochain) et un horaire (matin / après-midi / soir) ?"

	msgChoiceRetry = "Répondez 1, 2 ou 3 pour choisir un créneau, ou dites Décaler pour d’autres options."

	msgConfirmAsk   = "Parfait. Merci de confirmer OUI pour finaliser la réservation."
	msgConfirmRetry = "Confirmez OUI pour finaliser, ou dites Décaler pour d’autres options."

	msgSlotGone = "Ce créneau vient malheureusement d’être pris. " +
		"Pouvez-vous me donner une autre préférence de jour ou d’horaire ?"

	msgNoSlots = "Je n’ai pas trouvé de créneau disponible sur cette période. " +
		"Pouvez-vous proposer une autre préférence de jour ou d’horaire ?"

	msgBookingFailed = "Désolé, un problème est survenu lors de la réservation. " +
		"Merci de réessayer dans un instant."

	msgCancelAsk   = "Je peux annuler votre rendez-vous. Confirmez OUI pour annuler."
	msgCancelRetry = "Confirmez OUI pour annuler, ou Prendre / Décaler sinon."
	msgCancelled   = "Votre rendez-vous a été annulé."

	msgRescheduleAck = "D’accord, regardons d’autres créneaux. Avez-vous une préférence de jour ou d’horaire ?"

	msgFallback = "Je n’ai pas bien compris. Voulez-vous Prendre, Décaler ou Annuler un rendez-vous ?"
)

var serviceOptions = []Option{
	{ID: "service_controle", Label: "Contrôle"},
	{ID: "service_detartrage", Label: "Détartrage"},
	{ID: "service_urgence", Label: "Urgence"},
}

func identityAck(name, dob, email string) string {
	return fmt.Sprintf("Merci, j’ai bien noté: %s (%s) – %s. Quel type de rendez-vous souhaitez-vous ?\n"+
		"1) Contrôle / prévention\n2) Détartrage\n3) Douleur / urgence", name, dob, email)
}

func preferencesPrompt(name string) string {
	if name != "" {
		name = " " + name
	}
	return fmt.Sprintf("Très bien%s. Avez-vous une préférence de jour (ex. demain, lundi prochain) "+
		"et d’horaire (matin / après-midi / soir) ?", name)
}

func triageClearPrompt(name string) string {
	if name != "" {
		name = " " + name
	}
	return fmt.Sprintf("Merci%s. Avez-vous une préférence de jour et d’horaire (matin / après-midi / soir) ?", name)
}

func slotOffer(slots []time.Time) (string, []Option) {
	items := make([]string, 0, len(slots))
	options := make([]Option, 0, len(slots))
	for i, s := range slots {
		label := frtime.FormatHuman(s)
		items = append(items, fmt.Sprintf("%d) %s", i+1, label))
		options = append(options, Option{ID: fmt.Sprintf("slot_%d", i+1), Label: label})
	}
	body := "Voici des créneaux disponibles : " + strings.Join(items, ", ") + ". Répondez 1, 2 ou 3."
	return body, options
}

func confirmation(start time.Time, reminderHours int, invitationSent bool) string {
	extra := ""
	if invitationSent {
		extra = " Une invitation vous a été envoyée par email."
	}
	return fmt.Sprintf("Parfait 👍 Votre rendez-vous est confirmé le %s. "+
		"Vous recevrez un rappel %dh avant.%s", frtime.FormatHuman(start), reminderHours, extra)
}
