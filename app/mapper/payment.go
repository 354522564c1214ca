package mapper

import (
	"encoding/json"
	"time"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/types"
)

func PaymentToDTO(item *entity.Payment) *types.Payment {
	if item == nil {
		return nil
	}

	dto := &types.Payment{
		Id:               item.ID,
		UserId:           item.UserID,
		BookId:           item.BookID,
		Amount:           item.Amount.StringFixed(2),
		Currency:         item.Currency,
		Status:           string(item.Status),
		PayId:            derefString(item.PayID),
		OrderId:          derefString(item.OrderID),
		PayUrl:           derefString(item.PayURL),
		StatusCode:       derefString(item.StatusCode),
		StatusMessage:    derefString(item.StatusMessage),
		Rrn:              derefString(item.RRN),
		ApprovalCode:     derefString(item.ApprovalCode),
		CardNumber:       derefString(item.CardNumber),
		ThreeDs:          derefString(item.ThreeDS),
		RefundDate:       formatTime(item.RefundDate),
		Description:      item.Description,
		CallbackReceived: item.CallbackReceived,
		CreatedAt:        item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        item.UpdatedAt.UTC().Format(time.RFC3339),
		PaidAt:           formatTime(item.PaidAt),
	}
	if item.RefundAmount != nil {
		dto.RefundAmount = item.RefundAmount.StringFixed(2)
	}
	return dto
}

func PaymentsToDTO(items []*entity.Payment) []*types.Payment {
	result := make([]*types.Payment, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToDTO(item))
	}
	return result
}

func PaymentToAdminDTO(item *entity.Payment) *types.PaymentAdmin {
	if item == nil {
		return nil
	}
	dto := &types.PaymentAdmin{Payment: *PaymentToDTO(item), ClientIp: item.ClientIP}
	dto.CallbackData = rawJSON(item.CallbackData)
	return dto
}

func PaymentLogsToDTO(items []*entity.PaymentLog) []*types.PaymentLog {
	result := make([]*types.PaymentLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		result = append(result, &types.PaymentLog{
			Id:        item.ID,
			Kind:      string(item.Kind),
			Message:   item.Message,
			Data:      rawJSON(item.DataJSON),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result
}

func PaymentStatusToDTO(item *entity.Payment) *types.PaymentStatusResponse {
	if item == nil {
		return nil
	}
	return &types.PaymentStatusResponse{
		PaymentId:    item.ID,
		Status:       string(item.Status),
		IsSuccessful: item.IsSuccessful(),
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

// rawJSON drops stored payloads that are not valid JSON rather than breaking
// the whole response.
func rawJSON(v *string) json.RawMessage {
	if v == nil || *v == "" || !json.Valid([]byte(*v)) {
		return nil
	}
	return json.RawMessage(*v)
}
